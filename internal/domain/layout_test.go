package domain

import "testing"

func TestReceiptLayoutValidate(t *testing.T) {
	layout := DefaultReceiptLayout()
	if err := layout.Validate(); err != nil {
		t.Fatalf("default layout must validate: %v", err)
	}

	bad := DefaultReceiptLayout()
	bad.Version = 2
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected unsupported version to be rejected")
	}

	bad = DefaultReceiptLayout()
	bad.ItemFields = nil
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected empty item fields to be rejected")
	}

	bad = DefaultReceiptLayout()
	bad.ItemFields = []string{"name", "discount"}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected unknown item field to be rejected")
	}
}

func TestPrinterConfigValidate(t *testing.T) {
	cfg := DefaultPrinterConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	bad := DefaultPrinterConfig()
	bad.PaperWidth = 70
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected paper width 70 to be rejected")
	}

	bad = DefaultPrinterConfig()
	bad.CharactersWide = 10
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected 10 characters wide to be rejected")
	}

	bad = DefaultPrinterConfig()
	bad.Version = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected version 0 to be rejected")
	}
}

func TestPrinterSettingsValidate(t *testing.T) {
	settings := PrinterSettings{
		Name:           "Front Desk",
		ConnectionType: "network",
		Config:         DefaultPrinterConfig(),
	}
	if err := settings.Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}

	settings.ConnectionType = "parallel"
	if err := settings.Validate(); err == nil {
		t.Fatalf("expected unknown connection type to be rejected")
	}

	settings.ConnectionType = "usb"
	settings.Name = "  "
	if err := settings.Validate(); err == nil {
		t.Fatalf("expected blank name to be rejected")
	}
}
