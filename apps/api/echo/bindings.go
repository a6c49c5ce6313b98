package echoapi

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
)

var orderingParam = "ordering"

// jsonSerializer is the echo.JSONSerializer backed by goccy/go-json.
type jsonSerializer struct{}

func (jsonSerializer) Serialize(ctx echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(ctx.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(ctx echo.Context, i interface{}) error {
	err := json.NewDecoder(ctx.Request().Body).Decode(i)
	if ute, ok := err.(*json.UnmarshalTypeError); ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unmarshal type error: expected="+ute.Type.String()+", field="+ute.Field).SetInternal(err)
	} else if se, ok := err.(*json.SyntaxError); ok {
		return echo.NewHTTPError(http.StatusBadRequest, "syntax error: offset="+strconv.FormatInt(se.Offset, 10)+", error="+se.Error()).SetInternal(err)
	}
	return err
}

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	ord.Orderings = core.ParseOrdering(ctx.QueryParam(orderingParam))
}

// queryDate parses the optional YYYY-MM-DD query param `name`.
func queryDate(ctx echo.Context, name string) (core.Date, error) {
	d, err := core.ParseDate(ctx.QueryParam(name))
	if err != nil {
		return core.Date{}, core.NewValidationError(err, core.FieldError{Field: name, Error: err.Error()})
	}
	return d, nil
}

// queryInt parses the optional positive integer query param `name`.
func queryInt(ctx echo.Context, name string) (int, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		err = errors.Errorf("invalid %s %q", name, raw)
		return 0, core.NewValidationError(err, core.FieldError{Field: name, Error: "must be a positive integer"})
	}
	return n, nil
}

// bindJSON binds the request body into `dest`, any binding error being a 400.
func bindJSON(ctx echo.Context, dest interface{}) error {
	if err := ctx.Bind(dest); err != nil {
		if _, ok := err.(*echo.HTTPError); ok {
			return err
		}
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	return nil
}
