// Package results exposes the latest run report and KPI result sets over HTTP.
package results

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/repositories/customer"
	"github.com/Ramsey-B/fern/internal/repositories/order"
	"github.com/Ramsey-B/fern/pkg/pipeline"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// RunFunc executes one batch run from the configured extracts.
type RunFunc func(ctx context.Context) (*pipeline.Outcome, error)

// Handler serves run and KPI results
type Handler struct {
	pipeline  *pipeline.Pipeline
	customers *customer.Repository
	orders    *order.Repository
	run       RunFunc
}

// NewHandler creates a results handler. run may be nil to disable the trigger
// endpoint.
func NewHandler(p *pipeline.Pipeline, customers *customer.Repository, orders *order.Repository, run RunFunc) *Handler {
	return &Handler{
		pipeline:  p,
		customers: customers,
		orders:    orders,
		run:       run,
	}
}

// Register registers results routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/runs/latest", h.LatestRun)
	g.POST("/runs", h.TriggerRun)
	g.GET("/kpis/latest", h.LatestKPIs)
	g.GET("/customers/:id", h.GetCustomer)
	g.GET("/orders/:id", h.GetOrder)
}

// TriggerRun executes a batch run on demand and returns its report
func (h *Handler) TriggerRun(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "results_handler.TriggerRun")
	defer span.End()

	if h.run == nil {
		return httperror.NewHTTPError(http.StatusNotImplemented, "run trigger is not configured")
	}

	outcome, err := h.run(ctx)
	if err != nil {
		return httperror.NewHTTPErrorf(http.StatusInternalServerError, "run failed: %v", err)
	}
	return c.JSON(http.StatusOK, outcome.Report)
}

// LatestRun returns the most recent run report
func (h *Handler) LatestRun(c echo.Context) error {
	ctx := c.Request().Context()
	_, span := tracing.StartSpan(ctx, "results_handler.LatestRun")
	defer span.End()

	outcome := h.pipeline.Latest()
	if outcome == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "no run has completed yet")
	}
	return c.JSON(http.StatusOK, outcome.Report)
}

// LatestKPIs returns the most recent KPI result sets from both backends
func (h *Handler) LatestKPIs(c echo.Context) error {
	ctx := c.Request().Context()
	_, span := tracing.StartSpan(ctx, "results_handler.LatestKPIs")
	defer span.End()

	outcome := h.pipeline.Latest()
	if outcome == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "no run has completed yet")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"run_id":     outcome.Report.RunID,
		"memory":     outcome.Memory,
		"relational": outcome.Relational,
	})
}

// GetCustomer returns one persisted customer by business id
func (h *Handler) GetCustomer(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "results_handler.GetCustomer")
	defer span.End()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "customer id is required")
	}
	if h.customers == nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "relational backend is disabled")
	}

	cust, err := h.customers.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cust)
}

// GetOrder returns one persisted order with its line items
func (h *Handler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "results_handler.GetOrder")
	defer span.End()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "order id is required")
	}
	if h.orders == nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "relational backend is disabled")
	}

	o, err := h.orders.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}
