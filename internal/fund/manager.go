package fund

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"ScalpSentinel/internal/calculator"
	"ScalpSentinel/internal/model"
)

// Bounds on the operator-provided sizing inputs.
const (
	MinBalance = 100.0
	MinRiskPct = 0.1
	MaxRiskPct = 5.0
)

var (
	ErrBalanceTooLow  = errors.New("balance below minimum")
	ErrRiskOutOfRange = errors.New("risk percent out of range")
)

// Manager holds the account sizing settings with concurrency safety.
// An empty filePath keeps the settings in memory only.
type Manager struct {
	mu       sync.Mutex
	state    *model.AccountState
	filePath string
}

// NewManager creates a Manager. Settings stored at filePath take precedence;
// balance and riskPct only seed a fresh state. Use Apply to override stored
// settings with explicitly configured ones.
func NewManager(filePath string, balance, riskPct float64) (*Manager, error) {
	m := &Manager{state: &model.AccountState{}, filePath: filePath}
	if err := m.load(); err != nil {
		return nil, err
	}

	if m.state.Balance == 0 {
		m.state.Balance = balance
	}
	if m.state.RiskPct == 0 {
		m.state.RiskPct = riskPct
	}
	if err := validate(m.state.Balance, m.state.RiskPct); err != nil {
		return nil, err
	}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// GetState returns a copy of the current settings.
func (m *Manager) GetState() model.AccountState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.state
}

// Update changes balance and risk percent after validating them.
func (m *Manager) Update(balance, riskPct float64) error {
	if err := validate(balance, riskPct); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Balance = balance
	m.state.RiskPct = riskPct
	return m.save()
}

// Apply overrides the stored settings with the non-zero arguments. A zero
// balance or riskPct keeps the current value.
func (m *Manager) Apply(balance, riskPct float64) error {
	cur := m.GetState()
	if balance == 0 {
		balance = cur.Balance
	}
	if riskPct == 0 {
		riskPct = cur.RiskPct
	}
	if balance == cur.Balance && riskPct == cur.RiskPct {
		return nil
	}
	return m.Update(balance, riskPct)
}

// Size computes the risk amount and position size for a plan. The stop
// distance is measured from the unrounded close.
func (m *Manager) Size(plan model.TradePlan) model.RiskPlan {
	m.mu.Lock()
	defer m.mu.Unlock()

	riskAmount := m.state.RiskPct / 100 * m.state.Balance
	return model.RiskPlan{
		Balance:      m.state.Balance,
		RiskPct:      m.state.RiskPct,
		RiskAmount:   riskAmount,
		PositionSize: calculator.PositionSize(riskAmount, plan.LastClose, plan.StopLoss),
	}
}

func (m *Manager) load() error {
	if m.filePath == "" {
		return nil
	}
	data, err := os.ReadFile(m.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "read account state")
	}
	return errors.Wrapf(json.Unmarshal(data, m.state), "decode account state %s", m.filePath)
}

// save writes the settings atomically via a temp file.
func (m *Manager) save() error {
	if m.filePath == "" {
		return nil
	}
	m.state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode account state")
	}

	dir := filepath.Dir(m.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create state dir")
	}
	tmp := m.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write account state")
	}
	return errors.Wrap(os.Rename(tmp, m.filePath), "replace account state")
}

func validate(balance, riskPct float64) error {
	if balance < MinBalance {
		return errors.Wrapf(ErrBalanceTooLow, "%.2f < %.2f", balance, MinBalance)
	}
	if riskPct < MinRiskPct || riskPct > MaxRiskPct {
		return errors.Wrapf(ErrRiskOutOfRange, "%.2f not in [%.1f, %.1f]", riskPct, MinRiskPct, MaxRiskPct)
	}
	return nil
}
