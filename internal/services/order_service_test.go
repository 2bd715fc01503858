package services_test

import (
	"errors"
	"fmt"
	"testing"

	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepo is a testify mock of repositories.OrderRepository, used where
// failures need to be injected.
type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) GetByID(id string) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepo) FindByCustomer(customerID string) ([]models.Order, error) {
	args := m.Called(customerID)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepo) FindBySeller(sellerID string) ([]models.Order, error) {
	args := m.Called(sellerID)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepo) Create(order *models.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderRepo) UpdatePaymentStatus(id string, status string) error {
	args := m.Called(id, status)
	return args.Error(0)
}

func (m *MockOrderRepo) CancelIfNotCancelled(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

type orderFixture struct {
	service     *services.OrderService
	orderRepo   *repositories.MockOrderRepository
	productRepo *repositories.MockProductRepository
	customer    models.Customer
	seller      models.Seller
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	orderRepo := repositories.NewMockOrderRepository()
	productRepo := repositories.NewMockProductRepository()
	customerRepo := repositories.NewMockCustomerRepository()
	sellerRepo := repositories.NewMockSellerRepository()

	customer := models.Customer{Name: "Test Customer", Email: "customer@example.com", Password: "secret"}
	assert.NoError(t, customerRepo.Create(&customer))
	seller := models.Seller{Name: "Test Seller", ShopName: "Test Shop", Email: "seller@example.com", Password: "secret"}
	assert.NoError(t, sellerRepo.Create(&seller))

	return &orderFixture{
		service:     services.NewOrderService(orderRepo, productRepo, customerRepo, sellerRepo, nil, 0.10),
		orderRepo:   orderRepo,
		productRepo: productRepo,
		customer:    customer,
		seller:      seller,
	}
}

func (f *orderFixture) addProduct(t *testing.T, name string, price float64, stock int) models.Product {
	t.Helper()
	product := models.Product{SellerID: f.seller.ID, Name: name, Price: price, Stock: stock}
	assert.NoError(t, f.productRepo.Create(&product))
	return product
}

func (f *orderFixture) stockOf(t *testing.T, productID string) int {
	t.Helper()
	product, err := f.productRepo.GetByID(productID)
	assert.NoError(t, err)
	return product.Stock
}

func TestOrderService_PlaceOrder_Success(t *testing.T) {
	f := newOrderFixture(t)
	p := f.addProduct(t, "Laptop", 10.00, 10)

	order, err := f.service.PlaceOrder(services.PlaceOrderRequest{
		CustomerID:     f.customer.ID,
		SellerID:       f.seller.ID,
		DeliveryCharge: 5.00,
		TransactionID:  "txn-123",
		Items: []services.OrderItemRequest{
			{ProductID: p.ID, Quantity: 3, PricePerUnit: 10.00},
		},
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, 35.00, order.TotalAmount) // 3 x 10.00 + delivery
	assert.Equal(t, "Test Customer", order.CustomerName)
	assert.Equal(t, "Test Shop", order.ShopName)
	assert.Equal(t, 7, f.stockOf(t, p.ID))

	// The order total is frozen at the price captured at order time.
	p.Price = 999.00
	assert.NoError(t, f.productRepo.Update(&p))
	stored, err := f.service.GetOrderByID(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, 35.00, stored.TotalAmount)
	assert.Equal(t, 10.00, stored.Items[0].PricePerUnit)
}

func TestOrderService_PlaceOrder_InsufficientStockRollsBack(t *testing.T) {
	f := newOrderFixture(t)
	p := f.addProduct(t, "P", 10.00, 7)
	q := f.addProduct(t, "Q", 5.00, 1)

	_, err := f.service.PlaceOrder(services.PlaceOrderRequest{
		CustomerID: f.customer.ID,
		SellerID:   f.seller.ID,
		Items: []services.OrderItemRequest{
			{ProductID: p.ID, Quantity: 7, PricePerUnit: 10.00},
			{ProductID: q.ID, Quantity: 2, PricePerUnit: 5.00},
		},
	})

	var stockErr *repositories.InsufficientStockError
	assert.ErrorAs(t, err, &stockErr)
	assert.ErrorIs(t, err, repositories.ErrInsufficientStock)
	assert.Equal(t, q.ID, stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)

	// P's decrement was rolled back; nothing was persisted.
	assert.Equal(t, 7, f.stockOf(t, p.ID))
	assert.Equal(t, 1, f.stockOf(t, q.ID))
	orders, err := f.service.FindByCustomer(f.customer.ID)
	assert.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderService_PlaceOrder_AllOrNothingAtEveryLine(t *testing.T) {
	// Whichever line fails, every earlier decrement must be undone.
	for failAt := 0; failAt < 3; failAt++ {
		t.Run(fmt.Sprintf("fail_line_%d", failAt), func(t *testing.T) {
			f := newOrderFixture(t)
			items := make([]services.OrderItemRequest, 3)
			products := make([]models.Product, 3)
			for i := 0; i < 3; i++ {
				stock := 5
				if i == failAt {
					stock = 1 // requested quantity below will exceed this
				}
				products[i] = f.addProduct(t, fmt.Sprintf("prod-%d", i), 10.00, stock)
				items[i] = services.OrderItemRequest{ProductID: products[i].ID, Quantity: 2, PricePerUnit: 10.00}
			}

			_, err := f.service.PlaceOrder(services.PlaceOrderRequest{
				CustomerID: f.customer.ID,
				SellerID:   f.seller.ID,
				Items:      items,
			})
			assert.ErrorIs(t, err, repositories.ErrInsufficientStock)

			for i, p := range products {
				want := 5
				if i == failAt {
					want = 1
				}
				assert.Equal(t, want, f.stockOf(t, p.ID), "stock of product %d must be untouched", i)
			}
		})
	}
}

func TestOrderService_PlaceOrder_Validation(t *testing.T) {
	f := newOrderFixture(t)
	p := f.addProduct(t, "Laptop", 10.00, 10)

	cases := []struct {
		name string
		req  services.PlaceOrderRequest
		want error
	}{
		{"missing customer", services.PlaceOrderRequest{SellerID: f.seller.ID,
			Items: []services.OrderItemRequest{{ProductID: p.ID, Quantity: 1, PricePerUnit: 10}}}, services.ErrInvalidInput},
		{"empty items", services.PlaceOrderRequest{CustomerID: f.customer.ID, SellerID: f.seller.ID}, services.ErrInvalidInput},
		{"zero quantity", services.PlaceOrderRequest{CustomerID: f.customer.ID, SellerID: f.seller.ID,
			Items: []services.OrderItemRequest{{ProductID: p.ID, Quantity: 0, PricePerUnit: 10}}}, services.ErrInvalidInput},
		{"non-positive price", services.PlaceOrderRequest{CustomerID: f.customer.ID, SellerID: f.seller.ID,
			Items: []services.OrderItemRequest{{ProductID: p.ID, Quantity: 1, PricePerUnit: 0}}}, services.ErrInvalidInput},
		{"bad payment status", services.PlaceOrderRequest{CustomerID: f.customer.ID, SellerID: f.seller.ID, PaymentStatus: "shipped",
			Items: []services.OrderItemRequest{{ProductID: p.ID, Quantity: 1, PricePerUnit: 10}}}, services.ErrInvalidInput},
		{"unknown customer", services.PlaceOrderRequest{CustomerID: "missing", SellerID: f.seller.ID,
			Items: []services.OrderItemRequest{{ProductID: p.ID, Quantity: 1, PricePerUnit: 10}}}, repositories.ErrNotFound},
		{"unknown seller", services.PlaceOrderRequest{CustomerID: f.customer.ID, SellerID: "missing",
			Items: []services.OrderItemRequest{{ProductID: p.ID, Quantity: 1, PricePerUnit: 10}}}, repositories.ErrNotFound},
		{"unknown product", services.PlaceOrderRequest{CustomerID: f.customer.ID, SellerID: f.seller.ID,
			Items: []services.OrderItemRequest{{ProductID: "missing", Quantity: 1, PricePerUnit: 10}}}, repositories.ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.PlaceOrder(tc.req)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, 10, f.stockOf(t, p.ID), "validation failures must have no side effects")
		})
	}
}

func TestOrderService_PlaceOrder_RejectsForeignSellerProduct(t *testing.T) {
	f := newOrderFixture(t)
	other := models.Product{SellerID: "some-other-seller", Name: "Foreign", Price: 10.00, Stock: 5}
	assert.NoError(t, f.productRepo.Create(&other))

	_, err := f.service.PlaceOrder(services.PlaceOrderRequest{
		CustomerID: f.customer.ID,
		SellerID:   f.seller.ID,
		Items:      []services.OrderItemRequest{{ProductID: other.ID, Quantity: 1, PricePerUnit: 10.00}},
	})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
	assert.Equal(t, 5, f.stockOf(t, other.ID))
}

func TestOrderService_PlaceOrder_PriceDriftIsLoggedNotRejected(t *testing.T) {
	f := newOrderFixture(t)
	p := f.addProduct(t, "Laptop", 100.00, 10)

	// 50% drift from the catalog price: flagged in the log, still accepted,
	// and the client price is what lands on the order line.
	order, err := f.service.PlaceOrder(services.PlaceOrderRequest{
		CustomerID: f.customer.ID,
		SellerID:   f.seller.ID,
		Items:      []services.OrderItemRequest{{ProductID: p.ID, Quantity: 1, PricePerUnit: 50.00}},
	})
	assert.NoError(t, err)
	assert.Equal(t, 50.00, order.Items[0].PricePerUnit)
	assert.Equal(t, 50.00, order.TotalAmount)
}

func TestOrderService_PlaceOrder_PersistFailureReleasesStock(t *testing.T) {
	mockOrders := new(MockOrderRepo)
	productRepo := repositories.NewMockProductRepository()
	customerRepo := repositories.NewMockCustomerRepository()
	sellerRepo := repositories.NewMockSellerRepository()

	customer := models.Customer{Name: "C", Email: "c@example.com", Password: "secret"}
	assert.NoError(t, customerRepo.Create(&customer))
	seller := models.Seller{Name: "S", ShopName: "Shop", Email: "s@example.com", Password: "secret"}
	assert.NoError(t, sellerRepo.Create(&seller))
	product := models.Product{SellerID: seller.ID, Name: "Laptop", Price: 10.00, Stock: 10}
	assert.NoError(t, productRepo.Create(&product))

	service := services.NewOrderService(mockOrders, productRepo, customerRepo, sellerRepo, nil, 0.10)
	mockOrders.On("Create", mock.AnythingOfType("*models.Order")).Return(errors.New("database down")).Once()

	_, err := service.PlaceOrder(services.PlaceOrderRequest{
		CustomerID: customer.ID,
		SellerID:   seller.ID,
		Items:      []services.OrderItemRequest{{ProductID: product.ID, Quantity: 3, PricePerUnit: 10.00}},
	})
	assert.ErrorIs(t, err, services.ErrUnavailable)

	// The reservation was compensated: stock never stays decremented
	// without a persisted order.
	stored, getErr := productRepo.GetByID(product.ID)
	assert.NoError(t, getErr)
	assert.Equal(t, 10, stored.Stock)
	mockOrders.AssertExpectations(t)
}

func TestOrderService_CancelOrder_RestoresStockOnce(t *testing.T) {
	f := newOrderFixture(t)
	p := f.addProduct(t, "Laptop", 10.00, 10)

	order, err := f.service.PlaceOrder(services.PlaceOrderRequest{
		CustomerID: f.customer.ID,
		SellerID:   f.seller.ID,
		Items:      []services.OrderItemRequest{{ProductID: p.ID, Quantity: 3, PricePerUnit: 10.00}},
	})
	assert.NoError(t, err)
	assert.Equal(t, 7, f.stockOf(t, p.ID))

	cancelled, err := f.service.CancelOrder(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentCancelled, cancelled.PaymentStatus)
	assert.Equal(t, 10, f.stockOf(t, p.ID))

	// A second cancel is rejected and must not credit stock again.
	_, err = f.service.CancelOrder(order.ID)
	assert.ErrorIs(t, err, services.ErrInvalidState)
	assert.Equal(t, 10, f.stockOf(t, p.ID))

	_, err = f.service.CancelOrder("missing-order")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestOrderService_CancelOrder_RacingCancelsRestoreOnce(t *testing.T) {
	// The interleaving two concurrent cancels can hit: both read the order
	// while it is still pending, then both attempt the transition. The
	// conditional update in the store lets exactly one through, so stock is
	// credited back exactly once.
	mockOrders := new(MockOrderRepo)
	productRepo := repositories.NewMockProductRepository()
	customerRepo := repositories.NewMockCustomerRepository()
	sellerRepo := repositories.NewMockSellerRepository()

	product := models.Product{Name: "Laptop", Price: 10.00, Stock: 7}
	assert.NoError(t, productRepo.Create(&product))

	pending := &models.Order{
		ID:            "order-1",
		CustomerID:    "cust-1",
		SellerID:      "sell-1",
		PaymentStatus: models.PaymentPending,
		Items:         []models.OrderItem{{ProductID: product.ID, Quantity: 3}},
	}
	// Both callers see the stale pending snapshot.
	mockOrders.On("GetByID", "order-1").Return(pending, nil).Twice()
	mockOrders.On("CancelIfNotCancelled", "order-1").Return(nil).Once()
	mockOrders.On("CancelIfNotCancelled", "order-1").
		Return(fmt.Errorf("order with ID order-1: %w", repositories.ErrAlreadyCancelled)).Once()

	service := services.NewOrderService(mockOrders, productRepo, customerRepo, sellerRepo, nil, 0.10)

	cancelled, err := service.CancelOrder("order-1")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentCancelled, cancelled.PaymentStatus)

	_, err = service.CancelOrder("order-1")
	assert.ErrorIs(t, err, services.ErrInvalidState)

	// 7 + 3, not 7 + 6: the losing cancel must not credit stock again.
	stored, getErr := productRepo.GetByID(product.ID)
	assert.NoError(t, getErr)
	assert.Equal(t, 10, stored.Stock)
	mockOrders.AssertExpectations(t)
}

func TestOrderService_StockConservation(t *testing.T) {
	f := newOrderFixture(t)
	p := f.addProduct(t, "Laptop", 10.00, 20)

	placed := make([]*models.Order, 0)
	committed, restored := 0, 0
	for _, qty := range []int{3, 5, 2} {
		order, err := f.service.PlaceOrder(services.PlaceOrderRequest{
			CustomerID: f.customer.ID,
			SellerID:   f.seller.ID,
			Items:      []services.OrderItemRequest{{ProductID: p.ID, Quantity: qty, PricePerUnit: 10.00}},
		})
		assert.NoError(t, err)
		placed = append(placed, order)
		committed += qty
	}

	_, err := f.service.CancelOrder(placed[1].ID)
	assert.NoError(t, err)
	restored += 5

	assert.Equal(t, 20-committed+restored, f.stockOf(t, p.ID))
}

func TestOrderService_UpdatePaymentStatus(t *testing.T) {
	f := newOrderFixture(t)
	p := f.addProduct(t, "Laptop", 10.00, 10)

	order, err := f.service.PlaceOrder(services.PlaceOrderRequest{
		CustomerID: f.customer.ID,
		SellerID:   f.seller.ID,
		Items:      []services.OrderItemRequest{{ProductID: p.ID, Quantity: 1, PricePerUnit: 10.00}},
	})
	assert.NoError(t, err)

	assert.NoError(t, f.service.UpdatePaymentStatus(order.ID, models.PaymentPaid))
	stored, err := f.service.GetOrderByID(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, stored.PaymentStatus)

	// Status transitions carry no stock side effects.
	assert.Equal(t, 9, f.stockOf(t, p.ID))

	assert.ErrorIs(t, f.service.UpdatePaymentStatus(order.ID, "shipped"), services.ErrInvalidInput)
	assert.ErrorIs(t, f.service.UpdatePaymentStatus("missing", models.PaymentPaid), repositories.ErrNotFound)
}

func TestOrderService_FindByCustomerAndSeller(t *testing.T) {
	f := newOrderFixture(t)
	p := f.addProduct(t, "Laptop", 10.00, 10)

	order, err := f.service.PlaceOrder(services.PlaceOrderRequest{
		CustomerID: f.customer.ID,
		SellerID:   f.seller.ID,
		Items:      []services.OrderItemRequest{{ProductID: p.ID, Quantity: 1, PricePerUnit: 10.00}},
	})
	assert.NoError(t, err)

	byCustomer, err := f.service.FindByCustomer(f.customer.ID)
	assert.NoError(t, err)
	assert.Len(t, byCustomer, 1)
	assert.Equal(t, order.ID, byCustomer[0].ID)
	assert.Equal(t, "Test Shop", byCustomer[0].ShopName)

	bySeller, err := f.service.FindBySeller(f.seller.ID)
	assert.NoError(t, err)
	assert.Len(t, bySeller, 1)

	// Scoping: another principal sees nothing.
	empty, err := f.service.FindByCustomer("someone-else")
	assert.NoError(t, err)
	assert.Empty(t, empty)
	empty, err = f.service.FindBySeller("someone-else")
	assert.NoError(t, err)
	assert.Empty(t, empty)
}
