package videoroom

import "golang.org/x/crypto/bcrypt"

// UseMinBcryptCost keeps password tests fast.
func (s *Service) UseMinBcryptCost() { s.bcryptCost = bcrypt.MinCost }
