package transport

import (
	"testing"

	"realty_agent_backend/internal/leadstore"
)

func TestFromLead_PhoneExposedAsE164(t *testing.T) {
	national := "9876543210"
	resp := FromLead(leadstore.Lead{SessionID: "sess-1", Phone: &national})
	if resp.Phone == nil || *resp.Phone != "+919876543210" {
		t.Fatalf("Phone = %v, want +919876543210", resp.Phone)
	}

	junk := "not-a-number"
	resp = FromLead(leadstore.Lead{SessionID: "sess-2", Phone: &junk})
	if resp.Phone == nil || *resp.Phone != junk {
		t.Fatalf("Phone = %v, want unmodified %q", resp.Phone, junk)
	}

	resp = FromLead(leadstore.Lead{SessionID: "sess-3"})
	if resp.Phone != nil {
		t.Fatalf("Phone = %v, want nil", *resp.Phone)
	}
}
