package billing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// MockItemID is the dues item every mock invoice line points at.
const MockItemID = "MOCK-ITEM-1"

// MockLatency is the artificial delay of each mock call.
type MockLatency struct {
	CreateCustomer time.Duration
	FindCustomer   time.Duration
	UpdateCustomer time.Duration
	GetCustomer    time.Duration
	CreateInvoice  time.Duration
	GetInvoice     time.Duration
	CompanyInfo    time.Duration
}

// DefaultMockLatency roughly matches what the real API takes per call.
var DefaultMockLatency = MockLatency{
	CreateCustomer: 300 * time.Millisecond,
	FindCustomer:   200 * time.Millisecond,
	UpdateCustomer: 300 * time.Millisecond,
	GetCustomer:    200 * time.Millisecond,
	CreateInvoice:  400 * time.Millisecond,
	GetInvoice:     200 * time.Millisecond,
	CompanyInfo:    150 * time.Millisecond,
}

// MockClient is an in-memory Client. Ids are sequential (MOCK-CUST-1,
// MOCK-INV-1, ...) so tests can assert on them.
type MockClient struct {
	Latency MockLatency

	mu           sync.Mutex
	customers    map[string]Customer
	invoices     map[string]Invoice
	customerSeq  int
	invoiceSeq   int
	customerKeys []string
	invoiceKeys  []string
}

var _ Client = (*MockClient)(nil)

func NewMockClient(latency MockLatency) *MockClient {
	m := &MockClient{Latency: latency}
	m.Reset()
	return m
}

// MockSnapshot is a copy of everything the mock holds, in creation order.
type MockSnapshot struct {
	Customers []Customer `json:"customers"`
	Invoices  []Invoice  `json:"invoices"`
}

func (m *MockClient) Snapshot() MockSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := MockSnapshot{
		Customers: make([]Customer, 0, len(m.customerKeys)),
		Invoices:  make([]Invoice, 0, len(m.invoiceKeys)),
	}
	for _, id := range m.customerKeys {
		snap.Customers = append(snap.Customers, m.customers[id])
	}
	for _, id := range m.invoiceKeys {
		snap.Invoices = append(snap.Invoices, m.invoices[id])
	}
	return snap
}

// Reset drops all records and restarts the id sequences.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers = make(map[string]Customer)
	m.invoices = make(map[string]Invoice)
	m.customerKeys = nil
	m.invoiceKeys = nil
	m.customerSeq = 0
	m.invoiceSeq = 0
}

func (m *MockClient) FindCustomerByEmail(_ context.Context, email string) (*Customer, error) {
	m.wait(m.Latency.FindCustomer)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.customerKeys {
		c := m.customers[id]
		if strings.EqualFold(c.PrimaryEmailAddr.Address, email) {
			fiberlog.Infof("[Mock Billing] Found existing customer %s", c.ID)
			return &c, nil
		}
	}
	fiberlog.Infof("[Mock Billing] No customer found with email %s", email)
	return nil, nil
}

func (m *MockClient) CreateCustomer(_ context.Context, c Customer) (*Customer, error) {
	m.wait(m.Latency.CreateCustomer)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customerSeq++
	c.ID = fmt.Sprintf("MOCK-CUST-%d", m.customerSeq)
	c.SyncToken = "0"
	m.customers[c.ID] = c
	m.customerKeys = append(m.customerKeys, c.ID)
	fiberlog.Infof("[Mock Billing] Created customer %s", c.ID)
	return &c, nil
}

func (m *MockClient) UpdateCustomer(_ context.Context, c Customer) (*Customer, error) {
	m.wait(m.Latency.UpdateCustomer)
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.customers[c.ID]
	if !ok {
		return nil, fmt.Errorf("%w: customer %s", ErrNotFound, c.ID)
	}
	c.SyncToken = nextSyncToken(prev.SyncToken)
	m.customers[c.ID] = c
	fiberlog.Infof("[Mock Billing] Updated customer %s", c.ID)
	return &c, nil
}

func (m *MockClient) GetCustomer(_ context.Context, id string) (*Customer, error) {
	m.wait(m.Latency.GetCustomer)
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, fmt.Errorf("%w: customer %s", ErrNotFound, id)
	}
	return &c, nil
}

func (m *MockClient) CreateInvoice(_ context.Context, inv Invoice) (*Invoice, error) {
	m.wait(m.Latency.CreateInvoice)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.customers[inv.CustomerRef.Value]; !ok {
		return nil, fmt.Errorf("%w: customer %s", ErrNotFound, inv.CustomerRef.Value)
	}
	m.invoiceSeq++
	inv.ID = fmt.Sprintf("MOCK-INV-%d", m.invoiceSeq)
	m.invoices[inv.ID] = inv
	m.invoiceKeys = append(m.invoiceKeys, inv.ID)
	fiberlog.Infof("[Mock Billing] Created invoice %s for customer %s", inv.ID, inv.CustomerRef.Value)
	return &inv, nil
}

func (m *MockClient) GetInvoice(_ context.Context, id string) (*Invoice, error) {
	m.wait(m.Latency.GetInvoice)
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, id)
	}
	return &inv, nil
}

func (m *MockClient) CompanyInfo(_ context.Context) (*CompanyInfo, error) {
	m.wait(m.Latency.CompanyInfo)
	return &CompanyInfo{
		CompanyName: "Odessa Symphony Guild (Demo)",
		CompanyAddr: PhysicalAddress{
			Line1:                  "123 Symphony Lane",
			City:                   "Odessa",
			CountrySubDivisionCode: "TX",
			PostalCode:             "79761",
		},
		Email: EmailAddress{Address: "demo@odessasymphonyguild.org"},
	}, nil
}

// wait is a fixed delay. It does not observe cancellation, like the
// simulated payment step.
func (m *MockClient) wait(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

func nextSyncToken(prev string) string {
	var n int
	_, _ = fmt.Sscanf(prev, "%d", &n)
	return fmt.Sprintf("%d", n+1)
}
