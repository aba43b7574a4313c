package audit

import "testing"

func TestRedactor_Redact(t *testing.T) {
	r := NewRedactor("tenantSecretKey")
	details := map[string]string{
		"password":        "hunter2",
		"note":            "fine",
		"tenantSecretKey": "abc123",
		"custom_token":    "xyz",
	}
	got := r.Redact(details)

	if got["password"] != redactedPlaceholder {
		t.Errorf("password = %q, want redacted", got["password"])
	}
	if got["note"] != "fine" {
		t.Errorf("note = %q, want unchanged", got["note"])
	}
	if got["tenantSecretKey"] != redactedPlaceholder {
		t.Errorf("tenantSecretKey = %q, want redacted", got["tenantSecretKey"])
	}
	if got["custom_token"] != redactedPlaceholder {
		t.Errorf("custom_token = %q, want redacted (suffix match)", got["custom_token"])
	}
}

func TestRedactor_DoesNotMutateInput(t *testing.T) {
	r := NewRedactor()
	details := map[string]string{"password": "hunter2"}
	_ = r.Redact(details)
	if details["password"] != "hunter2" {
		t.Error("Redact mutated its input map")
	}
}

func TestRedactor_EmptyDetails(t *testing.T) {
	r := NewRedactor()
	if got := r.Redact(nil); got != nil {
		t.Errorf("expected nil for nil input, got %v", got)
	}
}
