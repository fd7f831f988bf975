package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"solSimBot/internal/domain"
	"solSimBot/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock implementations

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type mockEngine struct {
	openHolding *domain.Holding
	openErr     error
	sellResult  *domain.SellResult
	sellErr     error
	profit      float64
	profitErr   error

	openedMints []string
	soldMints   []string
}

func (m *mockEngine) OpenPosition(ctx context.Context, mint string) (*domain.Holding, error) {
	m.openedMints = append(m.openedMints, mint)
	return m.openHolding, m.openErr
}

func (m *mockEngine) ClosePosition(ctx context.Context, mint string) (*domain.SellResult, error) {
	m.soldMints = append(m.soldMints, mint)
	return m.sellResult, m.sellErr
}

func (m *mockEngine) RunningProfit(ctx context.Context) (float64, error) {
	return m.profit, m.profitErr
}

type mockTransport struct {
	replies []string
	sendErr error
}

func (m *mockTransport) Poll(ctx context.Context, handle func(ctx context.Context, chatID int64, text string)) error {
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockTransport) SendMessage(ctx context.Context, chatID int64, text string) error {
	m.replies = append(m.replies, text)
	return m.sendErr
}

func newTestService(t *testing.T, eng *mockEngine) (*Service, *mockTransport) {
	t.Helper()
	transport := &mockTransport{}
	svc, err := NewService(&mockLogger{}, eng, transport)
	require.NoError(t, err)
	return svc, transport
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(nil, &mockEngine{}, &mockTransport{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrConfiguration)
}

func TestHandleCommand_Profit(t *testing.T) {
	eng := &mockEngine{profit: 123.456}
	svc, transport := newTestService(t, eng)

	svc.HandleCommand(context.Background(), 42, "/profit")

	require.Len(t, transport.replies, 1)
	assert.Equal(t, "📊 Realized Profit: 123.46 USDC", transport.replies[0])
}

func TestHandleCommand_Buy(t *testing.T) {
	eng := &mockEngine{openHolding: &domain.Holding{
		Token:       "ABC",
		TokenName:   "Alphabet Coin",
		Balance:     2.0,
		SolPaidUSDC: 100.0,
	}}
	svc, transport := newTestService(t, eng)

	svc.HandleCommand(context.Background(), 42, "/buy ABC")

	assert.Equal(t, []string{"ABC"}, eng.openedMints)
	require.Len(t, transport.replies, 1)
	assert.Contains(t, transport.replies[0], "Alphabet Coin")
	assert.Contains(t, transport.replies[0], "2.0000")
}

func TestHandleCommand_BuyMissingArg(t *testing.T) {
	eng := &mockEngine{}
	svc, transport := newTestService(t, eng)

	svc.HandleCommand(context.Background(), 42, "/buy")

	assert.Empty(t, eng.openedMints)
	require.Len(t, transport.replies, 1)
	assert.Contains(t, transport.replies[0], "Usage: /buy")
}

func TestHandleCommand_Sell(t *testing.T) {
	eng := &mockEngine{sellResult: &domain.SellResult{
		Success: true,
		Msg:     "Simulated transaction executed successfully.",
		Tx:      "SIMULATED_TX_abc",
		Sold: &domain.SoldHolding{
			Holding:       domain.Holding{Token: "ABC", TokenName: "Alphabet Coin"},
			SoldPriceUSDC: 160.0,
			ProfitUSDC:    60.0,
		},
	}}
	svc, transport := newTestService(t, eng)

	svc.HandleCommand(context.Background(), 42, "/sell ABC")

	assert.Equal(t, []string{"ABC"}, eng.soldMints)
	require.Len(t, transport.replies, 1)
	assert.Contains(t, transport.replies[0], "160.0000")
	assert.Contains(t, transport.replies[0], "SIMULATED_TX_abc")
}

func TestHandleCommand_ErrorRendering(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "no open position",
			err:  fmt.Errorf("mint ZZZ: %w", ports.ErrNoOpenPosition),
			want: "⚠️ No holdings found for this token.",
		},
		{
			name: "duplicate position",
			err:  fmt.Errorf("mint ABC: %w", ports.ErrDuplicatePosition),
			want: "⚠️ A holding for this token is already open.",
		},
		{
			name: "price unavailable",
			err:  fmt.Errorf("mint ABC: %w", ports.ErrPriceUnavailable),
			want: "⚠️ Price unavailable, try again.",
		},
		{
			name: "storage failure",
			err:  fmt.Errorf("%w: disk full", ports.ErrStorage),
			want: "⛔ Internal storage error.",
		},
		{
			name: "unexpected",
			err:  errors.New("boom"),
			want: "⛔ Simulated transaction not executed.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &mockEngine{sellErr: tt.err}
			svc, transport := newTestService(t, eng)

			svc.HandleCommand(context.Background(), 42, "/sell ABC")

			require.Len(t, transport.replies, 1)
			assert.Equal(t, tt.want, transport.replies[0])
		})
	}
}

func TestHandleCommand_GroupChatSuffix(t *testing.T) {
	eng := &mockEngine{profit: 9}
	svc, transport := newTestService(t, eng)

	svc.HandleCommand(context.Background(), 42, "/profit@SolSimBot")

	require.Len(t, transport.replies, 1)
	assert.Contains(t, transport.replies[0], "9.00 USDC")
}

func TestHandleCommand_IgnoresUnknown(t *testing.T) {
	eng := &mockEngine{}
	svc, transport := newTestService(t, eng)

	svc.HandleCommand(context.Background(), 42, "hello there")
	svc.HandleCommand(context.Background(), 42, "")

	assert.Empty(t, transport.replies)
	assert.Empty(t, eng.openedMints)
	assert.Empty(t, eng.soldMints)
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	eng := &mockEngine{}
	svc, _ := newTestService(t, eng)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Start(ctx)
	assert.NoError(t, err) // context cancellation is a clean shutdown
}
