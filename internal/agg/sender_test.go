package agg

import "testing"

func TestExtractSenderInfo(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantName   string
		wantEmail  string
		wantDomain string
	}{
		{
			name:       "name and address",
			input:      "Acme Deals <deals@acme.com>",
			wantName:   "Acme Deals",
			wantEmail:  "deals@acme.com",
			wantDomain: "acme.com",
		},
		{
			name:       "quoted name",
			input:      `"Smith, Jane" <jane@example.org>`,
			wantName:   "Smith, Jane",
			wantEmail:  "jane@example.org",
			wantDomain: "example.org",
		},
		{
			name:       "bare address",
			input:      "news@example.com",
			wantName:   "news",
			wantEmail:  "news@example.com",
			wantDomain: "example.com",
		},
		{
			name:       "mixed case is normalized",
			input:      "Alerts <Alerts@Example.COM>",
			wantName:   "Alerts",
			wantEmail:  "alerts@example.com",
			wantDomain: "example.com",
		},
		{
			name:       "empty header",
			input:      "",
			wantName:   "",
			wantEmail:  "",
			wantDomain: "",
		},
		{
			name:       "no display name falls back to local part",
			input:      "<billing@shop.example>",
			wantName:   "billing",
			wantEmail:  "billing@shop.example",
			wantDomain: "shop.example",
		},
		{
			name:       "malformed header degrades to empty identity",
			input:      "Totally Broken <<<",
			wantName:   "",
			wantEmail:  "",
			wantDomain: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSenderInfo(tt.input)
			if got.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", got.Name, tt.wantName)
			}
			if got.Email != tt.wantEmail {
				t.Errorf("Email = %q, want %q", got.Email, tt.wantEmail)
			}
			if got.Domain != tt.wantDomain {
				t.Errorf("Domain = %q, want %q", got.Domain, tt.wantDomain)
			}
		})
	}
}
