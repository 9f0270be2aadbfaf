package usecase

// SetCodeGenerator sustituye el generador de códigos en los tests.
func (uc *StoreUseCase) SetCodeGenerator(fn func() (string, error)) {
	uc.newCode = fn
}
