package middleware

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"github.com/donaldgifford/rulesync/internal/tracing"
)

// Tracing returns Echo middleware that continues the caller's trace, if any,
// and wraps the request in a server span named after the route template.
func Tracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))

			route := routeLabel(c)
			ctx, span := tracing.Start(ctx, req.Method+" "+route,
				attribute.String("http.method", req.Method),
				attribute.String("http.route", route),
			)
			c.SetRequest(req.WithContext(ctx))
			if sc := span.SpanContext(); sc.HasTraceID() {
				c.Response().Header().Set("Trace-Id", sc.TraceID().String())
			}

			err := next(c)

			span.SetAttributes(attribute.Int("http.status_code", c.Response().Status))
			if err == nil && c.Response().Status >= 500 {
				span.SetAttributes(attribute.Bool("error", true))
			}
			tracing.End(span, err)
			return err
		}
	}
}
