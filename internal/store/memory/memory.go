package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	products        map[string]domain.Product
	barcodeIndex    map[string]string
	salesByID       map[string]domain.SaleTransaction
	usersByUsername map[string]domain.User
	registersByID   map[string]domain.CashRegister
	shiftsByID      map[string]domain.CashShift
	openShiftByUser map[string]string
	movementsByID   map[string]domain.CashMovement
	reportsByID     map[string]domain.ShiftReport
	templatesByID   map[string]domain.ReceiptTemplate
	printersByID    map[string]domain.PrinterSettings
}

func New() *Store {
	return &Store{
		products:        make(map[string]domain.Product),
		barcodeIndex:    make(map[string]string),
		salesByID:       make(map[string]domain.SaleTransaction),
		usersByUsername: make(map[string]domain.User),
		registersByID:   make(map[string]domain.CashRegister),
		shiftsByID:      make(map[string]domain.CashShift),
		openShiftByUser: make(map[string]string),
		movementsByID:   make(map[string]domain.CashMovement),
		reportsByID:     make(map[string]domain.ShiftReport),
		templatesByID:   make(map[string]domain.ReceiptTemplate),
		printersByID:    make(map[string]domain.PrinterSettings),
	}
}

// seedUsers builds the initial user accounts for dev/demo mode. Credentials
// come from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; hardcoded dev
// defaults are used with a warning when unset.
func seedUsers() map[string]domain.User {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "kasir123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.User{}
	for _, u := range []struct {
		username string
		password string
		fullName string
		role     string
	}{
		{"admin", adminPwd, "Administrator", domain.RoleAdmin},
		{"kasir", cashierPwd, "Kasir Toko", domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.User{
			ID:           uuid.NewString(),
			Username:     u.username,
			PasswordHash: string(hash),
			FullName:     u.fullName,
			Role:         u.role,
			IsActive:     true,
			CreatedAt:    now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	products := []domain.Product{
		{Name: "Sample Product 1", Barcode: "1234567890123", Price: decimal.RequireFromString("10.99"), Stock: 50, Category: "Electronics"},
		{Name: "Sample Product 2", Barcode: "2345678901234", Price: decimal.RequireFromString("5.99"), Stock: 100, Category: "Food"},
		{Name: "Sample Product 3", Barcode: "3456789012345", Price: decimal.RequireFromString("15.99"), Stock: 25, Category: "Clothing"},
		{Name: "Sample Product 4", Barcode: "4567890123456", Price: decimal.RequireFromString("8.99"), Stock: 75, Category: "Books"},
		{Name: "Sample Product 5", Barcode: "5678901234567", Price: decimal.RequireFromString("12.99"), Stock: 30, Category: "Electronics"},
	}
	for _, p := range products {
		p.ID = uuid.NewString()
		p.CreatedAt = now
		p.UpdatedAt = now
		s.products[p.ID] = p
		s.barcodeIndex[p.Barcode] = p.ID
	}

	s.usersByUsername = seedUsers()

	register := domain.CashRegister{
		ID:       uuid.NewString(),
		Name:     "Cash Register 1",
		Location: "Main Store",
		IsActive: true,
	}
	s.registersByID[register.ID] = register

	template := domain.ReceiptTemplate{
		ID:        uuid.NewString(),
		Name:      "Default Template",
		Layout:    domain.DefaultReceiptLayout(),
		IsDefault: true,
		CreatedBy: "system",
		CreatedAt: now,
	}
	s.templatesByID[template.ID] = template

	printer := domain.PrinterSettings{
		ID:             uuid.NewString(),
		Name:           "Default Printer",
		Type:           "thermal",
		ConnectionType: "usb",
		Config:         domain.DefaultPrinterConfig(),
		IsDefault:      true,
	}
	s.printersByID[printer.ID] = printer

	return s
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Category, b.Category)
	})

	return products, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.Barcode == "" || product.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.barcodeIndex[product.Barcode]; exists {
		return nil, store.ErrDuplicate
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	s.products[product.ID] = product
	s.barcodeIndex[product.Barcode] = product.ID
	created := product
	return &created, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) GetProductByBarcode(_ context.Context, barcode string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.barcodeIndex[barcode]
	if !exists {
		return nil, store.ErrNotFound
	}
	product := s.products[id]
	return &product, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.Barcode == "" || product.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.products[product.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if other, taken := s.barcodeIndex[product.Barcode]; taken && other != product.ID {
		return nil, store.ErrDuplicate
	}

	if existing.Barcode != product.Barcode {
		delete(s.barcodeIndex, existing.Barcode)
		s.barcodeIndex[product.Barcode] = product.ID
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[id]
	if !exists {
		return store.ErrNotFound
	}
	for _, sale := range s.salesByID {
		for _, item := range sale.Items {
			if item.ProductID == id {
				return store.ErrInvalidInput
			}
		}
	}

	delete(s.products, id)
	delete(s.barcodeIndex, product.Barcode)
	return nil
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (*domain.User, error) {
	username := strings.TrimSpace(user.Username)
	if username == "" || user.PasswordHash == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[username]; exists {
		return nil, store.ErrDuplicate
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Username = username
	s.usersByUsername[username] = user
	created := user
	return &created, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyUser := user
	return &copyUser, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.PasswordHash = passwordHash
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) TouchUserLogin(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for username, user := range s.usersByUsername {
		if user.ID == userID {
			stamp := at.UTC()
			user.LastLogin = &stamp
			s.usersByUsername[username] = user
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListRegisters(_ context.Context) ([]domain.CashRegister, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	registers := make([]domain.CashRegister, 0, len(s.registersByID))
	for _, register := range s.registersByID {
		registers = append(registers, register)
	}
	slices.SortFunc(registers, func(a, b domain.CashRegister) int {
		return cmpString(a.Name, b.Name)
	})
	return registers, nil
}

func (s *Store) GetActiveRegister(_ context.Context) (*domain.CashRegister, error) {
	registers, err := s.ListRegisters(context.Background())
	if err != nil {
		return nil, err
	}
	for _, register := range registers {
		if register.IsActive {
			copyRegister := register
			return &copyRegister, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateSale(_ context.Context, sale domain.SaleTransaction) (*domain.SaleTransaction, []domain.StockWarning, error) {
	if len(sale.Items) == 0 {
		return nil, nil, store.ErrInvalidInput
	}
	for _, item := range sale.Items {
		if item.Quantity < 1 {
			return nil, nil, store.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range sale.Items {
		if _, exists := s.products[item.ProductID]; !exists {
			return nil, nil, store.ErrNotFound
		}
	}

	if sale.ID == "" {
		sale.ID = uuid.NewString()
	}
	if sale.Timestamp.IsZero() {
		sale.Timestamp = time.Now().UTC()
	}

	warnings := make([]domain.StockWarning, 0)
	for _, item := range sale.Items {
		product := s.products[item.ProductID]
		product.Stock -= item.Quantity
		product.UpdatedAt = time.Now().UTC()
		s.products[item.ProductID] = product
		if product.Stock <= 0 {
			warnings = append(warnings, domain.StockWarning{
				ProductID: product.ID,
				Name:      product.Name,
				Stock:     product.Stock,
			})
		}
	}

	s.salesByID[sale.ID] = cloneSale(sale)
	created := cloneSale(sale)
	return &created, warnings, nil
}

func (s *Store) GetSaleByID(_ context.Context, id string) (*domain.SaleTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.salesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySale := cloneSale(sale)
	return &copySale, nil
}

func (s *Store) ListSales(_ context.Context, limit int) ([]domain.SaleTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.SaleTransaction, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		sales = append(sales, cloneSale(sale))
	}
	slices.SortFunc(sales, func(a, b domain.SaleTransaction) int {
		if a.Timestamp.Equal(b.Timestamp) {
			return cmpString(b.ID, a.ID)
		}
		if a.Timestamp.After(b.Timestamp) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(sales) > limit {
		sales = sales[:limit]
	}
	return sales, nil
}

func (s *Store) CreateShift(_ context.Context, shift domain.CashShift, opening domain.CashMovement) (*domain.CashShift, error) {
	if shift.UserID == "" || shift.InitialCash.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	if _, ok := domain.MovementSign(opening.Type); !ok {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.openShiftByUser[shift.UserID]; exists {
		return nil, store.ErrAlreadyOpen
	}
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	if shift.StartTime.IsZero() {
		shift.StartTime = time.Now().UTC()
	}
	shift.Status = domain.ShiftStatusOpen
	shift.EndTime = nil
	shift.ActualCash = nil
	shift.Difference = nil
	shift.ExpectedCash = shift.InitialCash

	if opening.ID == "" {
		opening.ID = uuid.NewString()
	}
	opening.ShiftID = shift.ID
	opening.Timestamp = shift.StartTime

	s.shiftsByID[shift.ID] = shift
	s.openShiftByUser[shift.UserID] = shift.ID
	s.movementsByID[opening.ID] = opening
	copyShift := shift
	return &copyShift, nil
}

func (s *Store) GetShiftByID(_ context.Context, id string) (*domain.CashShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shift, exists := s.shiftsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyShift := shift
	return &copyShift, nil
}

func (s *Store) GetOpenShiftByUser(_ context.Context, userID string) (*domain.CashShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shiftID, exists := s.openShiftByUser[userID]
	if !exists {
		return nil, store.ErrNotFound
	}
	shift, exists := s.shiftsByID[shiftID]
	if !exists || shift.Status != domain.ShiftStatusOpen {
		return nil, store.ErrNotFound
	}
	copyShift := shift
	return &copyShift, nil
}

func (s *Store) AppendMovement(_ context.Context, movement domain.CashMovement) (*domain.CashMovement, error) {
	if movement.ShiftID == "" || movement.Amount.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	delta, ok := domain.SignedAmount(movement.Type, movement.Amount)
	if !ok {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	shift, exists := s.shiftsByID[movement.ShiftID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if shift.Status != domain.ShiftStatusOpen {
		return nil, store.ErrShiftClosed
	}

	if movement.ID == "" {
		movement.ID = uuid.NewString()
	}
	if movement.Timestamp.IsZero() {
		movement.Timestamp = time.Now().UTC()
	}

	shift.ExpectedCash = shift.ExpectedCash.Add(delta)
	s.shiftsByID[shift.ID] = shift
	s.movementsByID[movement.ID] = movement
	created := movement
	return &created, nil
}

func (s *Store) ListMovements(_ context.Context, shiftID string) ([]domain.CashMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	movements := make([]domain.CashMovement, 0, 16)
	for _, movement := range s.movementsByID {
		if movement.ShiftID == shiftID {
			movements = append(movements, movement)
		}
	}
	slices.SortFunc(movements, func(a, b domain.CashMovement) int {
		if a.Timestamp.Equal(b.Timestamp) {
			return cmpString(b.ID, a.ID)
		}
		if a.Timestamp.After(b.Timestamp) {
			return -1
		}
		return 1
	})
	return movements, nil
}

func (s *Store) CloseShift(_ context.Context, shiftID string, actualCash decimal.Decimal, notes string, at time.Time) (*domain.CashShift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, exists := s.shiftsByID[shiftID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if shift.Status != domain.ShiftStatusOpen {
		return nil, store.ErrShiftClosed
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	difference := actualCash.Sub(shift.ExpectedCash)
	shift.Status = domain.ShiftStatusClosed
	shift.EndTime = &at
	shift.ActualCash = &actualCash
	shift.Difference = &difference
	shift.Notes = notes

	delete(s.openShiftByUser, shift.UserID)
	s.shiftsByID[shiftID] = shift
	copyShift := shift
	return &copyShift, nil
}

func (s *Store) SaveReport(_ context.Context, report domain.ShiftReport) (*domain.ShiftReport, error) {
	if report.ShiftID == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now().UTC()
	}
	s.reportsByID[report.ID] = cloneReport(report)
	saved := cloneReport(report)
	return &saved, nil
}

func (s *Store) ListReports(_ context.Context, limit int) ([]domain.ShiftReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := make([]domain.ShiftReport, 0, len(s.reportsByID))
	for _, report := range s.reportsByID {
		reports = append(reports, cloneReport(report))
	}
	slices.SortFunc(reports, func(a, b domain.ShiftReport) int {
		if a.GeneratedAt.Equal(b.GeneratedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.GeneratedAt.After(b.GeneratedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

func (s *Store) ListReceiptTemplates(_ context.Context) ([]domain.ReceiptTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	templates := make([]domain.ReceiptTemplate, 0, len(s.templatesByID))
	for _, template := range s.templatesByID {
		templates = append(templates, template)
	}
	slices.SortFunc(templates, func(a, b domain.ReceiptTemplate) int {
		return cmpString(a.Name, b.Name)
	})
	return templates, nil
}

func (s *Store) SaveReceiptTemplate(_ context.Context, template domain.ReceiptTemplate) (*domain.ReceiptTemplate, error) {
	if err := template.Layout.Validate(); err != nil {
		return nil, store.ErrInvalidInput
	}
	if strings.TrimSpace(template.Name) == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	if template.CreatedAt.IsZero() {
		template.CreatedAt = time.Now().UTC()
	}
	if template.IsDefault {
		for id, other := range s.templatesByID {
			if other.IsDefault {
				other.IsDefault = false
				s.templatesByID[id] = other
			}
		}
	}
	s.templatesByID[template.ID] = template
	saved := template
	return &saved, nil
}

func (s *Store) ListPrinterSettings(_ context.Context) ([]domain.PrinterSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	printers := make([]domain.PrinterSettings, 0, len(s.printersByID))
	for _, printer := range s.printersByID {
		printers = append(printers, printer)
	}
	slices.SortFunc(printers, func(a, b domain.PrinterSettings) int {
		return cmpString(a.Name, b.Name)
	})
	return printers, nil
}

func (s *Store) SavePrinterSettings(_ context.Context, settings domain.PrinterSettings) (*domain.PrinterSettings, error) {
	if err := settings.Validate(); err != nil {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if settings.ID == "" {
		settings.ID = uuid.NewString()
	}
	if settings.IsDefault {
		for id, other := range s.printersByID {
			if other.IsDefault {
				other.IsDefault = false
				s.printersByID[id] = other
			}
		}
	}
	s.printersByID[settings.ID] = settings
	saved := settings
	return &saved, nil
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneSale(src domain.SaleTransaction) domain.SaleTransaction {
	dup := src
	items := make([]domain.SaleItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return dup
}

func cloneReport(src domain.ShiftReport) domain.ShiftReport {
	dup := src
	movements := make([]domain.CashMovement, len(src.Data.Movements))
	copy(movements, src.Data.Movements)
	dup.Data.Movements = movements
	transactions := make([]domain.SaleTransaction, len(src.Data.Transactions))
	for i, tx := range src.Data.Transactions {
		transactions[i] = cloneSale(tx)
	}
	dup.Data.Transactions = transactions
	return dup
}
