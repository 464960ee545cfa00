package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
)

// BookingDetails is the data every booking template can use.
type BookingDetails struct {
	BookingID      string
	RecipientName  string
	CustomerName   string
	PropertyName   string
	PropertyAddr   string
	StartTime      time.Time
	EndTime        time.Time
	Duration       int64
	TotalAmount    int64
	ProviderPayout int64
	Currency       string
	AccessCode     string
	CancelledBy    string
	Reason         string
	FrontendURL    string
}

// FormatAmount renders minor units as a currency string, e.g. 660 usd -> $6.60.
func FormatAmount(minor int64, currency string) string {
	v := decimal.New(minor, -2).StringFixed(2)
	switch currency {
	case "", "usd":
		return "$" + v
	default:
		return v + " " + currency
	}
}

type mailTemplate struct {
	subject string
	body    *template.Template
}

var funcs = template.FuncMap{
	"money": FormatAmount,
	"when": func(t time.Time) string {
		return t.UTC().Format("Mon, Jan 2 2006 15:04 MST")
	},
	"cancelledWording": func(by string) string {
		switch by {
		case "user":
			return "at your request"
		case "provider":
			return "by the host"
		default:
			return "by MyWaterCloset"
		}
	},
}

var templates = map[Kind]mailTemplate{
	KindBookingConfirmation: {
		subject: "Booking confirmed: {{.PropertyName}}",
		body: parse("confirmation", `<h1>Your booking is confirmed</h1>
<p>Hi {{.RecipientName}},</p>
<p>You're all set at <strong>{{.PropertyName}}</strong>{{if .PropertyAddr}}, {{.PropertyAddr}}{{end}}.</p>
<p>{{when .StartTime}} to {{when .EndTime}} ({{.Duration}} min)</p>
<p>Total paid: {{money .TotalAmount .Currency}}</p>
{{if .AccessCode}}<p>Access code: <strong>{{.AccessCode}}</strong></p>{{end}}
<p><a href="{{.FrontendURL}}/bookings/{{.BookingID}}">View booking</a></p>`),
	},
	KindNewBookingProvider: {
		subject: "New booking at {{.PropertyName}}",
		body: parse("new_booking_provider", `<h1>You have a new booking</h1>
<p>Hi {{.RecipientName}},</p>
<p>{{.CustomerName}} booked <strong>{{.PropertyName}}</strong> for {{when .StartTime}} ({{.Duration}} min).</p>
<p>Your payout: {{money .ProviderPayout .Currency}}</p>
<p><a href="{{.FrontendURL}}/manage/bookings/{{.BookingID}}">Manage booking</a></p>`),
	},
	KindBookingCancelled: {
		subject: "Booking cancelled: {{.PropertyName}}",
		body: parse("cancelled", `<h1>Your booking was cancelled</h1>
<p>Hi {{.RecipientName}},</p>
<p>Your booking at <strong>{{.PropertyName}}</strong> on {{when .StartTime}} was cancelled {{cancelledWording .CancelledBy}}.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
<p>Any payment will be refunded to your original payment method.</p>`),
	},
	KindBookingCancelledByCustomer: {
		subject: "Booking cancelled by customer",
		body: parse("cancelled_by_customer", `<p>Hi {{.RecipientName}},</p>
<p>{{.CustomerName}} cancelled their booking at <strong>{{.PropertyName}}</strong> on {{when .StartTime}}.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}`),
	},
	KindReviewRequest: {
		subject: "How was {{.PropertyName}}?",
		body: parse("review_request", `<h1>Thanks for visiting</h1>
<p>Hi {{.RecipientName}},</p>
<p>How was your visit to <strong>{{.PropertyName}}</strong>? Your review helps other people find a clean restroom.</p>
<p><a href="{{.FrontendURL}}/bookings/{{.BookingID}}/review">Leave a review</a></p>`),
	},
}

func parse(name, body string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Parse(body))
}

// Render builds the e-mail of the given kind for recipient.
func Render(kind Kind, to Recipient, data BookingDetails) (Email, error) {
	tpl, ok := templates[kind]
	if !ok {
		return Email{}, fmt.Errorf("notify: unknown template %q", kind)
	}
	if data.RecipientName == "" {
		data.RecipientName = to.Name
	}

	subject, err := template.New("subject").Parse(tpl.subject)
	if err != nil {
		return Email{}, err
	}
	var subj, body bytes.Buffer
	if err := subject.Execute(&subj, data); err != nil {
		return Email{}, fmt.Errorf("notify: render subject %s: %w", kind, err)
	}
	if err := tpl.body.Execute(&body, data); err != nil {
		return Email{}, fmt.Errorf("notify: render body %s: %w", kind, err)
	}
	return Email{Kind: kind, To: to, Subject: subj.String(), HTML: body.String()}, nil
}
