package notifications

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/kitarena/kitarena-backend/pkg/enums"
)

// template sources are keyed by kind then language. Every kind must provide
// an Italian template; English falls back to Italian when missing.
type templateSet struct {
	subject string
	text    string
	html    string
}

var templateSources = map[enums.NotificationKind]map[enums.Language]templateSet{
	enums.NotificationOrderConfirmation: {
		enums.LanguageItalian: {
			subject: "Conferma ordine {{.OrderNumber}}",
			text: `Ciao {{.Name}},

grazie per il tuo ordine {{.OrderNumber}}.
Totale: {{.Amount}} {{.Currency}}.

Ti avviseremo quando l'ordine sarà spedito.

KitArena`,
			html: `<p>Ciao {{.Name}},</p>
<p>grazie per il tuo ordine <strong>{{.OrderNumber}}</strong>.</p>
<p>Totale: <strong>{{.Amount}} {{.Currency}}</strong>.</p>
<p>Ti avviseremo quando l'ordine sarà spedito.</p>
<p>KitArena</p>`,
		},
		enums.LanguageEnglish: {
			subject: "Order confirmation {{.OrderNumber}}",
			text: `Hi {{.Name}},

thank you for your order {{.OrderNumber}}.
Total: {{.Amount}} {{.Currency}}.

We will let you know once it ships.

KitArena`,
			html: `<p>Hi {{.Name}},</p>
<p>thank you for your order <strong>{{.OrderNumber}}</strong>.</p>
<p>Total: <strong>{{.Amount}} {{.Currency}}</strong>.</p>
<p>We will let you know once it ships.</p>
<p>KitArena</p>`,
		},
	},
	enums.NotificationShippingNotification: {
		enums.LanguageItalian: {
			subject: "Il tuo ordine {{.OrderNumber}} è in viaggio",
			text: `Ciao {{.Name}},

il tuo ordine {{.OrderNumber}} è stato spedito.
Codice di tracciamento: {{.TrackingCode}}.

KitArena`,
			html: `<p>Ciao {{.Name}},</p>
<p>il tuo ordine <strong>{{.OrderNumber}}</strong> è stato spedito.</p>
<p>Codice di tracciamento: <strong>{{.TrackingCode}}</strong>.</p>
<p>KitArena</p>`,
		},
		enums.LanguageEnglish: {
			subject: "Your order {{.OrderNumber}} is on its way",
			text: `Hi {{.Name}},

your order {{.OrderNumber}} has shipped.
Tracking code: {{.TrackingCode}}.

KitArena`,
			html: `<p>Hi {{.Name}},</p>
<p>your order <strong>{{.OrderNumber}}</strong> has shipped.</p>
<p>Tracking code: <strong>{{.TrackingCode}}</strong>.</p>
<p>KitArena</p>`,
		},
	},
	enums.NotificationOrderStatusUpdate: {
		enums.LanguageItalian: {
			subject: "Aggiornamento ordine {{.OrderNumber}}",
			text: `Ciao {{.Name}},

lo stato del tuo ordine {{.OrderNumber}} è ora: {{.Status}}.

KitArena`,
			html: `<p>Ciao {{.Name}},</p>
<p>lo stato del tuo ordine <strong>{{.OrderNumber}}</strong> è ora: <strong>{{.Status}}</strong>.</p>
<p>KitArena</p>`,
		},
		enums.LanguageEnglish: {
			subject: "Order {{.OrderNumber}} update",
			text: `Hi {{.Name}},

your order {{.OrderNumber}} is now: {{.Status}}.

KitArena`,
			html: `<p>Hi {{.Name}},</p>
<p>your order <strong>{{.OrderNumber}}</strong> is now: <strong>{{.Status}}</strong>.</p>
<p>KitArena</p>`,
		},
	},
	enums.NotificationInvoice: {
		enums.LanguageItalian: {
			subject: "Fattura per l'ordine {{.OrderNumber}}",
			text: `Ciao {{.Name}},

in allegato trovi la fattura per l'ordine {{.OrderNumber}}.
Importo: {{.Amount}} {{.Currency}}.

KitArena`,
			html: `<p>Ciao {{.Name}},</p>
<p>in allegato trovi la fattura per l'ordine <strong>{{.OrderNumber}}</strong>.</p>
<p>Importo: <strong>{{.Amount}} {{.Currency}}</strong>.</p>
<p>KitArena</p>`,
		},
		enums.LanguageEnglish: {
			subject: "Invoice for order {{.OrderNumber}}",
			text: `Hi {{.Name}},

please find attached the invoice for order {{.OrderNumber}}.
Amount: {{.Amount}} {{.Currency}}.

KitArena`,
			html: `<p>Hi {{.Name}},</p>
<p>please find attached the invoice for order <strong>{{.OrderNumber}}</strong>.</p>
<p>Amount: <strong>{{.Amount}} {{.Currency}}</strong>.</p>
<p>KitArena</p>`,
		},
	},
	enums.NotificationRefundConfirmation: {
		enums.LanguageItalian: {
			subject: "Rimborso ordine {{.OrderNumber}}",
			text: `Ciao {{.Name}},

abbiamo rimborsato {{.Amount}} {{.Currency}} per l'ordine {{.OrderNumber}}.
Riferimento: {{.RefundReference}}.

KitArena`,
			html: `<p>Ciao {{.Name}},</p>
<p>abbiamo rimborsato <strong>{{.Amount}} {{.Currency}}</strong> per l'ordine <strong>{{.OrderNumber}}</strong>.</p>
<p>Riferimento: <strong>{{.RefundReference}}</strong>.</p>
<p>KitArena</p>`,
		},
		enums.LanguageEnglish: {
			subject: "Refund for order {{.OrderNumber}}",
			text: `Hi {{.Name}},

we refunded {{.Amount}} {{.Currency}} for order {{.OrderNumber}}.
Reference: {{.RefundReference}}.

KitArena`,
			html: `<p>Hi {{.Name}},</p>
<p>we refunded <strong>{{.Amount}} {{.Currency}}</strong> for order <strong>{{.OrderNumber}}</strong>.</p>
<p>Reference: <strong>{{.RefundReference}}</strong>.</p>
<p>KitArena</p>`,
		},
	},
}

// render produces subject, text body and html body for a kind/language pair.
func render(kind enums.NotificationKind, language enums.Language, params Params) (subject, textBody, htmlBody string, err error) {
	byLanguage, ok := templateSources[kind]
	if !ok {
		return "", "", "", fmt.Errorf("no templates for notification kind %q", kind)
	}
	set, ok := byLanguage[language.OrDefault()]
	if !ok {
		set = byLanguage[enums.LanguageItalian]
	}

	subject, err = renderText("subject", set.subject, params)
	if err != nil {
		return "", "", "", err
	}
	textBody, err = renderText("text", set.text, params)
	if err != nil {
		return "", "", "", err
	}
	htmlBody, err = renderHTML("html", set.html, params)
	if err != nil {
		return "", "", "", err
	}
	return subject, textBody, htmlBody, nil
}

func renderText(name, source string, params Params) (string, error) {
	tmpl, err := texttemplate.New(name).Parse(source)
	if err != nil {
		return "", fmt.Errorf("parsing %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("rendering %s template: %w", name, err)
	}
	return buf.String(), nil
}

func renderHTML(name, source string, params Params) (string, error) {
	tmpl, err := htmltemplate.New(name).Parse(source)
	if err != nil {
		return "", fmt.Errorf("parsing %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("rendering %s template: %w", name, err)
	}
	return buf.String(), nil
}
