package printing

import (
	"context"
	"fmt"

	"github.com/estatevest/backend/internal/application/payout"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStore is where rendered deeds are kept
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// DeedGateway renders deeds and returns a download link for them
type DeedGateway struct {
	template *DeedTemplate
	renderer PDFRenderer
	store    ObjectStore
	slots    chan struct{}
	logger   *zap.Logger
}

var _ payout.DeedRenderer = (*DeedGateway)(nil)

// NewDeedGateway creates a gateway. maxConcurrent bounds simultaneous Chrome tabs.
func NewDeedGateway(tmpl *DeedTemplate, renderer PDFRenderer, store ObjectStore, maxConcurrent int, logger *zap.Logger) *DeedGateway {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeedGateway{
		template: tmpl,
		renderer: renderer,
		store:    store,
		slots:    make(chan struct{}, maxConcurrent),
		logger:   logger,
	}
}

// DeedKey is the object key of an investment's deed
func DeedKey(investmentID uuid.UUID) string {
	return fmt.Sprintf("deeds/%s.pdf", investmentID)
}

// RenderDeed implements payout.DeedRenderer
func (g *DeedGateway) RenderDeed(ctx context.Context, p payout.DeedPayload) (string, error) {
	html, err := g.template.Execute(p)
	if err != nil {
		return "", err
	}

	select {
	case g.slots <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	pdf, err := g.renderer.RenderPDF(ctx, html)
	<-g.slots
	if err != nil {
		return "", err
	}

	key := DeedKey(p.InvestmentID)
	if err := g.store.Put(ctx, key, pdf, "application/pdf"); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to store deed", err)
	}
	link, err := g.store.PresignGet(ctx, key)
	if err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to sign deed link", err)
	}

	g.logger.Info("Deed generated",
		zap.String("investment_id", p.InvestmentID.String()),
		zap.String("key", key),
		zap.Int("bytes", len(pdf)),
	)
	return link, nil
}

// Close releases the renderer
func (g *DeedGateway) Close() error {
	return g.renderer.Close()
}
