package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"shopnotify/internal/config"
	"shopnotify/internal/tracking"
	"shopnotify/internal/types"
)

// TemplateResolver looks up the active template for a notification type.
type TemplateResolver interface {
	GetActiveByType(ctx context.Context, tt types.TemplateType) (*types.EmailTemplate, error)
}

// StorefrontReader exposes the read side of the shop data the pipeline
// consumes.
type StorefrontReader interface {
	GetOrderWithItems(ctx context.Context, orderID string) (*types.Order, error)
	GetShipment(ctx context.Context, shipmentID string) (*types.Shipment, error)
	GetCompanyInfo(ctx context.Context) (types.CompanyInfo, error)
}

// SendLedger records every send attempt and its final outcome.
type SendLedger interface {
	Create(ctx context.Context, rec *types.SendRecord) error
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errorMessage string) error
}

// Outcome is what a trigger returns to its caller: the ledger id plus the
// final reconciled status. A provider rejection still yields an Outcome, not
// an error; inspect Dispatch for the detail.
type Outcome struct {
	SendID   string               `json:"send_id"`
	Status   types.SendStatus     `json:"status"`
	Dispatch types.DispatchResult `json:"dispatch"`
}

// Service runs the notification pipeline end to end: fetch, build context,
// compile, record, rewrite links, dispatch, reconcile.
type Service struct {
	templates  TemplateResolver
	storefront StorefrontReader
	ledger     SendLedger
	dispatcher *Dispatcher

	publicBaseURL string
	storefrontURL string
	signingKey    []byte

	logger *slog.Logger
}

func NewService(
	templates TemplateResolver,
	storefront StorefrontReader,
	ledger SendLedger,
	dispatcher *Dispatcher,
	cfg *config.Config,
	logger *slog.Logger,
) *Service {
	return &Service{
		templates:     templates,
		storefront:    storefront,
		ledger:        ledger,
		dispatcher:    dispatcher,
		publicBaseURL: cfg.Server.PublicBaseURL,
		storefrontURL: cfg.Server.StorefrontURL,
		signingKey:    []byte(cfg.Tracking.SigningKey.Unmask()),
		logger:        logger.With(slog.String("component", "email_service")),
	}
}

// SendOrderStatus notifies an order's customer that the order reached
// statusCode. The status carried by the trigger wins over whatever status
// the order row currently holds.
func (s *Service) SendOrderStatus(ctx context.Context, orderID, statusCode string) (*Outcome, error) {
	var (
		tpl     *types.EmailTemplate
		order   *types.Order
		company types.CompanyInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tpl, err = s.templates.GetActiveByType(gctx, types.TemplateOrderStatus)
		return err
	})
	g.Go(func() (err error) {
		order, err = s.storefront.GetOrderWithItems(gctx, orderID)
		return err
	})
	g.Go(func() (err error) {
		company, err = s.storefront.GetCompanyInfo(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bag := BuildOrderContext(order, company, statusCode, s.storefrontURL)
	summary := fmt.Sprintf("%s — comanda %s (%s)", displayTitle(bag), OrderNumber(orderID), statusCode)

	return s.run(ctx, runInput{
		template:  tpl,
		emailType: types.TemplateOrderStatus,
		entityID:  orderID,
		recipient: order.CustomerEmail,
		bag:       bag,
		summary:   summary,
	})
}

// SendShipmentUpdate notifies a shipment's customer of a carrier status
// change. Line items and totals come from the shipment's parent order.
func (s *Service) SendShipmentUpdate(ctx context.Context, shipmentID, statusCode string) (*Outcome, error) {
	shipment, err := s.storefront.GetShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	var (
		tpl     *types.EmailTemplate
		order   *types.Order
		company types.CompanyInfo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tpl, err = s.templates.GetActiveByType(gctx, types.TemplateShipmentUpdate)
		return err
	})
	g.Go(func() (err error) {
		order, err = s.storefront.GetOrderWithItems(gctx, shipment.OrderID)
		return err
	})
	g.Go(func() (err error) {
		company, err = s.storefront.GetCompanyInfo(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bag := BuildShipmentContext(shipment, order, company, statusCode, s.storefrontURL)
	summary := fmt.Sprintf("%s — expediere %s, comanda %s",
		displayTitle(bag), shipment.TrackingNumber, OrderNumber(shipment.OrderID))

	return s.run(ctx, runInput{
		template:  tpl,
		emailType: types.TemplateShipmentUpdate,
		entityID:  shipmentID,
		recipient: shipment.CustomerEmail,
		bag:       bag,
		summary:   summary,
	})
}

type runInput struct {
	template  *types.EmailTemplate
	emailType types.TemplateType
	entityID  string
	recipient string
	bag       Context
	summary   string
}

// run executes the tail of the pipeline shared by both triggers. Every
// configuration problem is surfaced before the ledger row exists; once the
// row is created, any later failure reconciles it to "failed" instead of
// leaving it dangling.
func (s *Service) run(ctx context.Context, in runInput) (*Outcome, error) {
	if err := s.dispatcher.ValidateIdentity(); err != nil {
		return nil, err
	}

	// Subject and body are compiled against the plain context first: a
	// malformed template aborts here, pre-ledger, and the body output doubles
	// as the source of the plain-text part with its original URLs intact.
	subject, err := Compile(in.template.Subject, in.bag)
	if err != nil {
		return nil, err
	}
	plainHTML, err := Compile(in.template.HTMLContent, in.bag)
	if err != nil {
		return nil, err
	}

	rec := &types.SendRecord{
		Recipients:      []string{in.recipient},
		Subject:         subject,
		Content:         in.summary,
		EmailType:       in.emailType,
		RelatedEntityID: in.entityID,
	}
	if err := s.ledger.Create(ctx, rec); err != nil {
		return nil, err
	}

	lb, err := tracking.NewLinkBuilder(s.publicBaseURL, s.signingKey, rec.ID, in.recipient)
	if err != nil {
		return s.failAndWrap(ctx, rec, err)
	}
	trackedHTML, err := Compile(in.template.HTMLContent, in.bag.WithTracking(lb))
	if err != nil {
		return s.failAndWrap(ctx, rec, err)
	}

	html := injectPixel(trackedHTML, lb.PixelTag())
	text := HTMLToText(plainHTML)

	result := s.dispatcher.Dispatch(ctx, rec, html, text)
	outcome := &Outcome{SendID: rec.ID, Dispatch: result}

	if result.Accepted {
		outcome.Status = types.SendStatusSent
		if err := s.ledger.MarkSent(ctx, rec.ID); err != nil {
			return nil, err
		}
	} else {
		outcome.Status = types.SendStatusFailed
		if err := s.ledger.MarkFailed(ctx, rec.ID, result.ErrorDetail); err != nil {
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "notification pipeline finished",
		slog.String("send_id", rec.ID),
		slog.String("email_type", string(in.emailType)),
		slog.String("status", string(outcome.Status)))
	return outcome, nil
}

// failAndWrap reconciles the ledger row to "failed" and returns the original
// error. The reconcile error, if any, is logged and dropped so the root
// cause wins.
func (s *Service) failAndWrap(ctx context.Context, rec *types.SendRecord, cause error) (*Outcome, error) {
	if err := s.ledger.MarkFailed(ctx, rec.ID, cause.Error()); err != nil {
		s.logger.ErrorContext(ctx, "failed to reconcile ledger after pipeline error",
			slog.String("send_id", rec.ID), slog.Any("error", err))
	}
	return nil, cause
}

// injectPixel appends the open pixel to the HTML body, inside </body> when
// one is present.
func injectPixel(html, pixelTag string) string {
	const closeBody = "</body>"
	if idx := strings.LastIndex(strings.ToLower(html), closeBody); idx >= 0 {
		return html[:idx] + pixelTag + html[idx:]
	}
	return html + pixelTag
}

// displayTitle pulls the status title out of a built context for summary
// lines.
func displayTitle(bag Context) string {
	if v, ok := bag["statusTitle"].(string); ok {
		return v
	}
	return ""
}
