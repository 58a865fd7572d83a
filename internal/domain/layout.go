package domain

import (
	"fmt"
	"strings"
	"time"
)

// ReceiptLayout is the stored layout for a receipt template. Payloads are
// versioned so that old rows can be recognized and rejected or migrated
// instead of being parsed on faith.
type ReceiptLayout struct {
	Version    int      `json:"version"`
	HeaderText string   `json:"header_text"`
	ShowLogo   bool     `json:"show_logo"`
	ItemFields []string `json:"item_fields"`
	ShowTotals bool     `json:"show_totals"`
	FooterText string   `json:"footer_text"`
}

const ReceiptLayoutVersion = 1

var receiptItemFields = map[string]bool{
	"name":     true,
	"quantity": true,
	"price":    true,
	"subtotal": true,
}

func (l ReceiptLayout) Validate() error {
	if l.Version != ReceiptLayoutVersion {
		return fmt.Errorf("unsupported receipt layout version %d", l.Version)
	}
	if len(l.ItemFields) == 0 {
		return fmt.Errorf("receipt layout requires at least one item field")
	}
	for _, field := range l.ItemFields {
		if !receiptItemFields[field] {
			return fmt.Errorf("unknown receipt item field %q", field)
		}
	}
	return nil
}

// DefaultReceiptLayout mirrors the layout seeded on first run.
func DefaultReceiptLayout() ReceiptLayout {
	return ReceiptLayout{
		Version:    ReceiptLayoutVersion,
		HeaderText: "WarungPOS",
		ShowLogo:   false,
		ItemFields: []string{"name", "quantity", "price", "subtotal"},
		ShowTotals: true,
		FooterText: "Terima kasih atas kunjungan Anda",
	}
}

type ReceiptTemplate struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Layout    ReceiptLayout `json:"layout"`
	IsDefault bool          `json:"is_default"`
	CreatedBy string        `json:"created_by"`
	CreatedAt time.Time     `json:"created_at"`
}

// PrinterConfig is the stored configuration for a receipt printer, also
// versioned. PaperWidth is in millimeters.
type PrinterConfig struct {
	Version         int    `json:"version"`
	Model           string `json:"model"`
	PaperWidth      int    `json:"paper_width"`
	CharactersWide  int    `json:"characters_wide"`
	AutoCut         bool   `json:"auto_cut"`
	CashDrawerPulse bool   `json:"cash_drawer_pulse"`
}

const PrinterConfigVersion = 1

func (c PrinterConfig) Validate() error {
	if c.Version != PrinterConfigVersion {
		return fmt.Errorf("unsupported printer config version %d", c.Version)
	}
	if c.PaperWidth != 58 && c.PaperWidth != 80 {
		return fmt.Errorf("paper width must be 58 or 80, got %d", c.PaperWidth)
	}
	if c.CharactersWide < 20 || c.CharactersWide > 64 {
		return fmt.Errorf("characters wide must be between 20 and 64, got %d", c.CharactersWide)
	}
	return nil
}

func DefaultPrinterConfig() PrinterConfig {
	return PrinterConfig{
		Version:         PrinterConfigVersion,
		Model:           "POS58",
		PaperWidth:      58,
		CharactersWide:  32,
		AutoCut:         false,
		CashDrawerPulse: true,
	}
}

type PrinterSettings struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Type           string        `json:"printer_type"`
	ConnectionType string        `json:"connection_type"`
	Config         PrinterConfig `json:"config"`
	IsDefault      bool          `json:"is_default"`
}

var printerConnectionTypes = map[string]bool{
	"usb":       true,
	"serial":    true,
	"network":   true,
	"bluetooth": true,
}

func (p PrinterSettings) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("printer name required")
	}
	if !printerConnectionTypes[p.ConnectionType] {
		return fmt.Errorf("unknown printer connection type %q", p.ConnectionType)
	}
	return p.Config.Validate()
}
