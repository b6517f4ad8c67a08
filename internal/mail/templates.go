package mail

import "github.com/iliyamo/maddi-booking/internal/model"

type layout struct {
	Subject string
	Body    string
}

// layouts are rendered with html/template; Name and the message data keys
// are available as {{.Name}} and {{.Data.key}}.
var layouts = map[model.EmailTemplate]layout{
	model.EmailBookingRequest: {
		Subject: "New booking request for {{.Data.billboard_title}}",
		Body: `<!DOCTYPE html>
<html>
<body>
	<h2>New booking request</h2>
	<p>Hello {{.Name}},</p>
	<p>A business asked to book "{{.Data.billboard_title}}" ({{.Data.location}}) from {{.Data.start_date}} to {{.Data.end_date}}.</p>
	<p>Total: {{.Data.total_price}}</p>
	<p>Open your dashboard to approve or reject request #{{.Data.booking_id}}.</p>
</body>
</html>`,
	},
	model.EmailBookingApproved: {
		Subject: "Your booking for {{.Data.billboard_title}} was approved",
		Body: `<!DOCTYPE html>
<html>
<body>
	<h2>Booking approved</h2>
	<p>Hello {{.Name}},</p>
	<p>Your campaign on "{{.Data.billboard_title}}" from {{.Data.start_date}} to {{.Data.end_date}} is confirmed.</p>
	<p>Total: {{.Data.total_price}}</p>
</body>
</html>`,
	},
	model.EmailBookingRejected: {
		Subject: "Your booking for {{.Data.billboard_title}} was declined",
		Body: `<!DOCTYPE html>
<html>
<body>
	<h2>Booking declined</h2>
	<p>Hello {{.Name}},</p>
	<p>The owner of "{{.Data.billboard_title}}" declined your request for {{.Data.start_date}} to {{.Data.end_date}}.</p>
</body>
</html>`,
	},
	model.EmailCampaignEnded: {
		Subject: "Your campaign on {{.Data.billboard_title}} has ended",
		Body: `<!DOCTYPE html>
<html>
<body>
	<h2>Campaign ended</h2>
	<p>Hello {{.Name}},</p>
	<p>Your campaign on "{{.Data.billboard_title}}" ran from {{.Data.start_date}} to {{.Data.end_date}} and is now complete.</p>
</body>
</html>`,
	},
	model.EmailAdminInvitation: {
		Subject: "You have been invited to administer Maddi",
		Body: `<!DOCTYPE html>
<html>
<body>
	<h2>Administrator invitation</h2>
	<p>You were invited to join Maddi as {{.Data.role}}.</p>
	<p><a href="{{.Data.accept_url}}">Accept the invitation</a></p>
	<p>This link expires on {{.Data.expires_at}} and can be used once.</p>
</body>
</html>`,
	},
}
