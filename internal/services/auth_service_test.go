package services_test

import (
	"log"
	"os"
	"testing"
	"time"

	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

// TestMain is used to setup the test environment.
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(os.Stdout)
	code := m.Run()
	os.Exit(code)
}

func newAuthFixture(t *testing.T) (*services.AuthService, *repositories.MockCustomerRepository, *repositories.MockSellerRepository) {
	t.Helper()
	customerRepo := repositories.NewMockCustomerRepository()
	sellerRepo := repositories.NewMockSellerRepository()
	return services.NewAuthService(customerRepo, sellerRepo, "test_jwt_secret"), customerRepo, sellerRepo
}

func TestAuthService_RegisterCustomer(t *testing.T) {
	authService, customerRepo, _ := newAuthFixture(t)

	customer := &models.Customer{
		Name:     "Test Customer",
		Email:    "customer@example.com",
		Password: "password123",
	}
	assert.NoError(t, authService.RegisterCustomer(customer))

	// The stored password is a bcrypt hash, never the plaintext.
	stored, err := customerRepo.GetByEmail("customer@example.com")
	assert.NoError(t, err)
	assert.NotEqual(t, "password123", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("password123")))

	// Duplicate email is rejected.
	err = authService.RegisterCustomer(&models.Customer{
		Name:     "Other",
		Email:    "customer@example.com",
		Password: "password456",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestAuthService_LoginCustomer(t *testing.T) {
	authService, _, _ := newAuthFixture(t)

	customer := &models.Customer{Name: "Test Customer", Email: "customer@example.com", Password: "password123"}
	assert.NoError(t, authService.RegisterCustomer(customer))

	token, err := authService.Login("customer@example.com", "password123", services.RoleCustomer)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, customer.ID, claims["sub"])
	assert.Equal(t, services.RoleCustomer, claims["role"])

	// Wrong password and unknown email fail identically.
	_, err = authService.Login("customer@example.com", "wrong", services.RoleCustomer)
	assert.EqualError(t, err, "invalid credentials")
	_, err = authService.Login("nobody@example.com", "password123", services.RoleCustomer)
	assert.EqualError(t, err, "invalid credentials")
}

func TestAuthService_LoginSeller(t *testing.T) {
	authService, _, _ := newAuthFixture(t)

	seller := &models.Seller{Name: "Test Seller", ShopName: "Test Shop", Email: "seller@example.com", Password: "password123"}
	assert.NoError(t, authService.RegisterSeller(seller))

	token, err := authService.Login("seller@example.com", "password123", services.RoleSeller)
	assert.NoError(t, err)

	claims, err := authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, seller.ID, claims["sub"])
	assert.Equal(t, services.RoleSeller, claims["role"])

	// A customer login against a seller email fails.
	_, err = authService.Login("seller@example.com", "password123", services.RoleCustomer)
	assert.EqualError(t, err, "invalid credentials")

	_, err = authService.Login("seller@example.com", "password123", "admin")
	assert.Error(t, err)
}

func TestAuthService_ValidateToken_Rejections(t *testing.T) {
	authService, _, _ := newAuthFixture(t)

	_, err := authService.ValidateToken("not-a-token")
	assert.Error(t, err)

	// A token signed with a different secret is rejected.
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "someone",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	foreignString, err := foreign.SignedString([]byte("other_secret"))
	assert.NoError(t, err)
	_, err = authService.ValidateToken(foreignString)
	assert.Error(t, err)
}
