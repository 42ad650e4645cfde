package models

import "testing"

func TestAccountNumberSplit(t *testing.T) {
	tests := []struct {
		accountNo string
		wantCANO  string
		wantCode  string
	}{
		{"12345678-01", "12345678", "01"},
		{"12345678-22", "12345678", "22"},
		{"12345678", "12345678", "01"},
		{"", "", "01"},
	}
	for _, tt := range tests {
		a := Account{AccountNo: tt.accountNo}
		if got := a.CANO(); got != tt.wantCANO {
			t.Errorf("CANO(%q) = %q, want %q", tt.accountNo, got, tt.wantCANO)
		}
		if got := a.ProductCode(); got != tt.wantCode {
			t.Errorf("ProductCode(%q) = %q, want %q", tt.accountNo, got, tt.wantCode)
		}
	}
}

func TestAccountOverseas(t *testing.T) {
	if (Account{Type: AccountTypeDomestic}).Overseas() {
		t.Error("domestic account reported as overseas")
	}
	if (Account{Type: AccountTypePension}).Overseas() {
		t.Error("pension account reported as overseas")
	}
	if !(Account{Type: AccountTypeOverseas}).Overseas() {
		t.Error("overseas account not reported as overseas")
	}
}
