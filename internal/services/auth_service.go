package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"pasar/internal/models"
	"pasar/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// Principal roles carried in the JWT.
const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
)

// AuthService handles registration and login for customers and sellers. It
// is injected wherever credential verification is needed; there is no global
// state.
type AuthService struct {
	customerRepo repositories.CustomerRepository
	sellerRepo   repositories.SellerRepository
	jwtSecret    []byte
	tokenDurat   time.Duration // Duration for which JWT is valid
}

// NewAuthService creates a new AuthService.
func NewAuthService(customerRepo repositories.CustomerRepository, sellerRepo repositories.SellerRepository, jwtSecret string) *AuthService {
	return &AuthService{
		customerRepo: customerRepo,
		sellerRepo:   sellerRepo,
		jwtSecret:    []byte(jwtSecret),
		tokenDurat:   24 * time.Hour, // Token valid for 24 hours
	}
}

// RegisterCustomer registers a new customer, hashing their password.
func (s *AuthService) RegisterCustomer(customer *models.Customer) error {
	if existing, err := s.customerRepo.GetByEmail(customer.Email); err == nil && existing != nil {
		return fmt.Errorf("email '%s' already registered", customer.Email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(customer.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	customer.Password = string(hashedPassword)

	if err := s.customerRepo.Create(customer); err != nil {
		return fmt.Errorf("failed to register customer: %w", err)
	}
	return nil
}

// RegisterSeller registers a new seller, hashing their password.
func (s *AuthService) RegisterSeller(seller *models.Seller) error {
	if existing, err := s.sellerRepo.GetByEmail(seller.Email); err == nil && existing != nil {
		return fmt.Errorf("email '%s' already registered", seller.Email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(seller.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	seller.Password = string(hashedPassword)

	if err := s.sellerRepo.Create(seller); err != nil {
		return fmt.Errorf("failed to register seller: %w", err)
	}
	return nil
}

// Login authenticates a customer or seller by email and returns a JWT token
// carrying the principal id and role.
func (s *AuthService) Login(email, password, role string) (string, error) {
	var id, hashed string
	switch role {
	case RoleCustomer:
		customer, err := s.customerRepo.GetByEmail(email)
		if err != nil {
			// Do not reveal whether the email exists
			return "", errors.New("invalid credentials")
		}
		id, hashed = customer.ID, customer.Password
	case RoleSeller:
		seller, err := s.sellerRepo.GetByEmail(email)
		if err != nil {
			return "", errors.New("invalid credentials")
		}
		id, hashed = seller.ID, seller.Password
	default:
		return "", fmt.Errorf("unknown role: %s", role)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  id,
		"role": role,
		"exp":  time.Now().Add(s.tokenDurat).Unix(),
		"iat":  time.Now().Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
