package service

import (
	"context"
	"sync"
	"testing"

	"stockmart/internal/basket"
	"stockmart/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, lines []model.OrderLine) (*model.Order, error) {
	args := m.Called(ctx, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) Get(ctx context.Context, id int) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) MarkPaid(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderRepository) ClaimNextPaid(ctx context.Context) (*model.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ReleaseClaim(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderRepository) MarkPacked(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockStock is a mock implementation of remote.StockReadWriter.
type MockStock struct {
	mock.Mock
}

func (m *MockStock) Exists(ctx context.Context, productNo string) (bool, error) {
	args := m.Called(ctx, productNo)
	return args.Bool(0), args.Error(1)
}

func (m *MockStock) GetDetails(ctx context.Context, productNo string) (*model.Product, error) {
	args := m.Called(ctx, productNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockStock) GetImage(ctx context.Context, productNo string) ([]byte, error) {
	args := m.Called(ctx, productNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStock) SearchByName(ctx context.Context, term string) ([]model.Product, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockStock) GetLowStockItems(ctx context.Context, threshold int) ([]model.Product, error) {
	args := m.Called(ctx, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockStock) GetSalesSummary(ctx context.Context) ([]model.SalesSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SalesSummary), args.Error(1)
}

func (m *MockStock) Buy(ctx context.Context, productNo string, quantity int) error {
	args := m.Called(ctx, productNo, quantity)
	return args.Error(0)
}

func (m *MockStock) AddStock(ctx context.Context, productNo string, quantity int) error {
	args := m.Called(ctx, productNo, quantity)
	return args.Error(0)
}

func twoLineOrder(id int, state model.OrderState) *model.Order {
	return &model.Order{
		ID:    id,
		State: state,
		Lines: []model.OrderLine{
			{OrderID: id, ProductNo: "0001", Description: "40 inch TV", UnitPrice: 269.00, Quantity: 1},
			{OrderID: id, ProductNo: "0002", Description: "DAB Radio", UnitPrice: 29.99, Quantity: 2},
		},
	}
}

func TestOrderProcessor_NewOrder(t *testing.T) {
	ctx := context.Background()
	repo := new(MockOrderRepository)
	stock := new(MockStock)
	proc := NewOrderProcessor(repo, stock, zerolog.Nop())

	b := basket.New()
	require.NoError(t, b.Add(model.Product{Number: "0001", Description: "40 inch TV", Price: 269.00}, 1))

	repo.On("Create", ctx, mock.AnythingOfType("[]model.OrderLine")).
		Return(&model.Order{ID: 7, State: model.OrderStateNew}, nil)

	id, err := proc.NewOrder(ctx, b)

	require.NoError(t, err)
	assert.Equal(t, 7, id)
	// Order number is stamped back onto the committed basket.
	assert.Equal(t, 7, b.OrderNum())
	repo.AssertExpectations(t)
}

func TestOrderProcessor_NewOrder_EmptyBasket(t *testing.T) {
	proc := NewOrderProcessor(new(MockOrderRepository), new(MockStock), zerolog.Nop())

	_, err := proc.NewOrder(context.Background(), basket.New())
	assert.Error(t, err)
}

func TestOrderProcessor_NewOrder_PricesLinesAtCommitTime(t *testing.T) {
	ctx := context.Background()
	repo := new(MockOrderRepository)
	proc := NewOrderProcessor(repo, new(MockStock), zerolog.Nop())

	b := basket.New()
	require.NoError(t, b.Add(model.Product{Number: "0001", Description: "Discounted", Price: 100.00}, 1))
	require.NoError(t, b.ApplyDiscount(0.10))

	repo.On("Create", ctx, mock.MatchedBy(func(lines []model.OrderLine) bool {
		return len(lines) == 1 && lines[0].UnitPrice > 89.99 && lines[0].UnitPrice < 90.01
	})).Return(&model.Order{ID: 1, State: model.OrderStateNew}, nil)

	_, err := proc.NewOrder(ctx, b)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestOrderProcessor_MarkPaid(t *testing.T) {
	ctx := context.Background()
	repo := new(MockOrderRepository)
	proc := NewOrderProcessor(repo, new(MockStock), zerolog.Nop())

	repo.On("MarkPaid", ctx, 7).Return(nil)

	require.NoError(t, proc.MarkPaid(ctx, 7))
	repo.AssertExpectations(t)
}

func TestOrderProcessor_MarkPaid_InvalidTransition(t *testing.T) {
	ctx := context.Background()
	repo := new(MockOrderRepository)
	proc := NewOrderProcessor(repo, new(MockStock), zerolog.Nop())

	stateErr := model.NewStockError(model.ErrCodeInvalidOrderState, "already paid")
	repo.On("MarkPaid", ctx, 7).Return(stateErr)

	err := proc.MarkPaid(ctx, 7)
	assert.Equal(t, model.ErrCodeInvalidOrderState, model.StockErrorCode(err))
}

func TestOrderProcessor_MarkPacked_Success(t *testing.T) {
	ctx := context.Background()
	repo := new(MockOrderRepository)
	stock := new(MockStock)
	proc := NewOrderProcessor(repo, stock, zerolog.Nop())

	repo.On("Get", ctx, 9).Return(twoLineOrder(9, model.OrderStatePacking), nil)
	stock.On("Buy", ctx, "0001", 1).Return(nil)
	stock.On("Buy", ctx, "0002", 2).Return(nil)
	repo.On("MarkPacked", ctx, 9).Return(nil)

	require.NoError(t, proc.MarkPacked(ctx, 9))
	repo.AssertExpectations(t)
	stock.AssertExpectations(t)
}

func TestOrderProcessor_MarkPacked_RollsBackOnLineFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(MockOrderRepository)
	stock := new(MockStock)
	proc := NewOrderProcessor(repo, stock, zerolog.Nop())

	repo.On("Get", ctx, 9).Return(twoLineOrder(9, model.OrderStatePacking), nil)
	stock.On("Buy", ctx, "0001", 1).Return(nil)
	// Second line fails: stock dropped to zero between commit and pack.
	stock.On("Buy", ctx, "0002", 2).Return(model.ErrInsufficientStock)
	// The first line's decrement is compensated and the claim released.
	stock.On("AddStock", ctx, "0001", 1).Return(nil)
	repo.On("ReleaseClaim", ctx, 9).Return(nil)

	err := proc.MarkPacked(ctx, 9)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInsufficientStock)
	repo.AssertNotCalled(t, "MarkPacked", ctx, 9)
	repo.AssertExpectations(t)
	stock.AssertExpectations(t)
}

func TestOrderProcessor_MarkPacked_FinaliseFailureReleasesClaim(t *testing.T) {
	ctx := context.Background()
	repo := new(MockOrderRepository)
	stock := new(MockStock)
	proc := NewOrderProcessor(repo, stock, zerolog.Nop())

	// Every line decrements fine but the final state transition fails.
	repo.On("Get", ctx, 9).Return(twoLineOrder(9, model.OrderStatePacking), nil)
	stock.On("Buy", ctx, "0001", 1).Return(nil)
	stock.On("Buy", ctx, "0002", 2).Return(nil)
	storeErr := model.NewStockError(model.ErrCodeStoreError, "connection lost")
	repo.On("MarkPacked", ctx, 9).Return(storeErr)
	// Both decrements are compensated and the claim goes back to the
	// queue; a PACKING order no packer can reclaim must never be left
	// behind.
	stock.On("AddStock", ctx, "0001", 1).Return(nil)
	stock.On("AddStock", ctx, "0002", 2).Return(nil)
	repo.On("ReleaseClaim", ctx, 9).Return(nil)

	err := proc.MarkPacked(ctx, 9)

	require.Error(t, err)
	assert.Equal(t, model.ErrCodeStoreError, model.StockErrorCode(err))
	repo.AssertCalled(t, "ReleaseClaim", ctx, 9)
	repo.AssertExpectations(t)
	stock.AssertExpectations(t)
}

func TestOrderProcessor_MarkPacked_UnknownOrder(t *testing.T) {
	ctx := context.Background()
	repo := new(MockOrderRepository)
	proc := NewOrderProcessor(repo, new(MockStock), zerolog.Nop())

	repo.On("Get", ctx, 404).Return(nil, nil)

	err := proc.MarkPacked(ctx, 404)
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}

func TestOrderProcessor_MarkPacked_WrongState(t *testing.T) {
	ctx := context.Background()
	repo := new(MockOrderRepository)
	stock := new(MockStock)
	proc := NewOrderProcessor(repo, stock, zerolog.Nop())

	repo.On("Get", ctx, 3).Return(twoLineOrder(3, model.OrderStateNew), nil)

	err := proc.MarkPacked(ctx, 3)
	assert.Equal(t, model.ErrCodeInvalidOrderState, model.StockErrorCode(err))
	stock.AssertNotCalled(t, "Buy", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderProcessor_NextUnpacked_EmptyQueue(t *testing.T) {
	ctx := context.Background()
	repo := new(MockOrderRepository)
	proc := NewOrderProcessor(repo, new(MockStock), zerolog.Nop())

	repo.On("ClaimNextPaid", ctx).Return(nil, nil)

	order, err := proc.NextUnpacked(ctx)
	require.NoError(t, err)
	assert.Nil(t, order)
}

// claimFakeRepo is an in-memory OrderRepository with compare-and-set
// transitions, used to exercise concurrent claiming without a database.
type claimFakeRepo struct {
	mu     sync.Mutex
	orders map[int]*model.Order
}

func newClaimFakeRepo(paidIDs ...int) *claimFakeRepo {
	r := &claimFakeRepo{orders: make(map[int]*model.Order)}
	for _, id := range paidIDs {
		r.orders[id] = &model.Order{ID: id, State: model.OrderStatePaid}
	}
	return r
}

func (r *claimFakeRepo) Create(ctx context.Context, lines []model.OrderLine) (*model.Order, error) {
	panic("not used")
}

func (r *claimFakeRepo) Get(ctx context.Context, id int) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *claimFakeRepo) MarkPaid(ctx context.Context, id int) error {
	return r.cas(id, model.OrderStateNew, model.OrderStatePaid)
}

func (r *claimFakeRepo) ClaimNextPaid(ctx context.Context) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var oldest *model.Order
	for _, o := range r.orders {
		if o.State != model.OrderStatePaid {
			continue
		}
		if oldest == nil || o.ID < oldest.ID {
			oldest = o
		}
	}
	if oldest == nil {
		return nil, nil
	}
	oldest.State = model.OrderStatePacking
	cp := *oldest
	return &cp, nil
}

func (r *claimFakeRepo) ReleaseClaim(ctx context.Context, id int) error {
	return r.cas(id, model.OrderStatePacking, model.OrderStatePaid)
}

func (r *claimFakeRepo) MarkPacked(ctx context.Context, id int) error {
	return r.cas(id, model.OrderStatePacking, model.OrderStatePacked)
}

func (r *claimFakeRepo) cas(id int, from, to model.OrderState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return model.ErrOrderNotFound
	}
	if o.State != from {
		return model.NewStockError(model.ErrCodeInvalidOrderState, "invalid transition")
	}
	o.State = to
	return nil
}

func TestOrderProcessor_NextUnpacked_ConcurrentClaimsAreUnique(t *testing.T) {
	ctx := context.Background()
	repo := newClaimFakeRepo(1, 2, 3, 4, 5)
	proc := NewOrderProcessor(repo, new(MockStock), zerolog.Nop())

	const packers = 10
	results := make(chan int, packers)

	var wg sync.WaitGroup
	for i := 0; i < packers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := proc.NextUnpacked(ctx)
			require.NoError(t, err)
			if order != nil {
				results <- order.ID
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int]bool)
	for id := range results {
		assert.False(t, seen[id], "order %d claimed twice", id)
		seen[id] = true
	}
	// All five paid orders were claimed, each exactly once.
	assert.Len(t, seen, 5)
}
