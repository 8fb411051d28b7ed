package shared

import "errors"

var (
	ErrNotImplemented = errors.New("not implemented")

	// Configuration errors
	ErrMissingConfig = errors.New("configuration not found")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Catalog errors
	ErrAssetNotFound    = errors.New("asset not found")
	ErrBranchNotFound   = errors.New("branch not found")
	ErrStatusNotFound   = errors.New("status not found")
	ErrCardNotFound     = errors.New("library card not found")
	ErrCheckoutNotFound = errors.New("checkout not found")
	ErrVariantMismatch  = errors.New("asset variant mismatch")
	ErrUnknownVariant   = errors.New("unknown asset variant")
	ErrCatalogNotEmpty  = errors.New("catalog already has assets")

	// Storage errors
	ErrUnsupportedDriver  = errors.New("unsupported database driver")
	ErrServiceUnavailable = errors.New("service unavailable")

	// Input validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingArgument = errors.New("missing required argument")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidFlag     = errors.New("invalid flag value")
)
