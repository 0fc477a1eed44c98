// Package printing renders investment deeds to PDF with headless Chrome and
// publishes them to object storage.
//
// A DeedGateway ties the pieces together:
//
//	renderer, err := NewChromedpRenderer(&ChromedpConfig{ExecPath: cfg.Printing.ChromePath})
//	tmpl, err := NewDeedTemplate(cfg.Payout.Currency)
//	gateway := NewDeedGateway(tmpl, renderer, store, cfg.Printing.MaxConcurrent, logger)
//	link, err := gateway.RenderDeed(ctx, payload)
package printing
