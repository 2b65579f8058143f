package inputval

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		// Valid emails
		{"user@example.com", true},
		{"user.name@example.com", true},
		{"user+tag@example.com", true},
		{"user@subdomain.example.com", true},
		{"user123@example.co.uk", true},
		{"a@b.co", true},
		{"user@localhost", true}, // single-label domains are fine for dev

		// Empty / whitespace
		{"", false},
		{"   ", false},

		// Missing parts
		{"user", false},
		{"user@", false},
		{"@example.com", false},

		// Malformed dot placement
		{".user@example.com", false},
		{"user.@example.com", false},
		{"user..name@example.com", false},
		{"user@.example.com", false},
		{"user@example..com", false},

		// Display-name form must be rejected
		{"User Name <user@example.com>", false},

		// Embedded spaces
		{"user @example.com", false},
		{"user@ example.com", false},
		{"user@exam ple.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"+22670000001", true},
		{"22670000001", true},
		{"70123456", true}, // local 8-digit number
		{"+14155550123", true},

		{"", false},
		{"+226", false},           // too short
		{"1234567", false},        // 7 digits
		{"+1234567890123456", false}, // 16 digits
		{"+226 70 00 00 01", false},  // separators must be normalized away first
		{"phone", false},
		{"70-12-34-56", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			if got := IsValidPhone(tt.phone); got != tt.want {
				t.Errorf("IsValidPhone(%q) = %v, want %v", tt.phone, got, tt.want)
			}
		})
	}
}

func TestIsValidQuantity(t *testing.T) {
	const step = 0.5

	tests := []struct {
		name string
		q    float64
		want bool
	}{
		{"whole", 2, true},
		{"half step", 0.5, true},
		{"fractional multiple", 2.5, true},
		{"large", 100, true},

		{"zero", 0, false},
		{"negative", -1, false},
		{"off the step", 0.3, false},
		{"between steps", 1.75, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidQuantity(tt.q, step); got != tt.want {
				t.Errorf("IsValidQuantity(%v, %v) = %v, want %v", tt.q, step, got, tt.want)
			}
		})
	}
}

func TestIsValidQuantity_NoStep(t *testing.T) {
	if !IsValidQuantity(0.3, 0) {
		t.Error("any positive quantity should pass when the step is disabled")
	}
	if IsValidQuantity(-0.3, 0) {
		t.Error("negative quantity must fail even without a step")
	}
}

func TestIsValidPrice(t *testing.T) {
	if !IsValidPrice(0) || !IsValidPrice(5000) {
		t.Error("non-negative prices should pass")
	}
	if IsValidPrice(-1) {
		t.Error("negative price must fail")
	}
}
