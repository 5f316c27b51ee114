package notify

import "text/template"

var templateSources = map[string][2]string{
	EventApproved: {
		"Your {{.Organization}} membership is approved",
		`# Welcome, {{.FirstName}}

Your **{{.Category}}** membership has been approved.

- Reference number: **{{.ReferenceNo}}**
{{- if .ExpiryDate}}
- Valid until: {{.ExpiryDate}}
{{- end}}

You can now sign in to the member portal at {{.PortalURL}}.
Your membership certificate will follow in a separate email.
`,
	},
	EventRejected: {
		"Your {{.Organization}} membership application",
		`# Hello {{.FirstName}}

We were unable to approve your membership application ({{.ReferenceNo}}).
{{- if .Reason}}

Reason: {{.Reason}}
{{- end}}

Please contact us if you have any questions.
`,
	},
	EventRenewed: {
		"Your {{.Organization}} membership has been renewed",
		`# Thank you, {{.FirstName}}

Your membership ({{.ReferenceNo}}) has been renewed.
{{- if .ExpiryDate}}

It is now valid until **{{.ExpiryDate}}**.
{{- end}}
`,
	},
}

func mustParseTemplates() map[string]*emailTemplate {
	out := make(map[string]*emailTemplate, len(templateSources))
	for event, src := range templateSources {
		out[event] = &emailTemplate{
			subject: template.Must(template.New(event + "_subject").Parse(src[0])),
			body:    template.Must(template.New(event + "_body").Parse(src[1])),
		}
	}
	return out
}
