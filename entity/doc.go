// Package entity declares the storefront entities and the pipelines turning
// store rows into them.
//
// Each pipeline validates a raw row (snake_case columns, unknown columns
// stripped), normalizes it into a camelCase domain value applying the
// per-field defaults, and checks the entity's business invariants. Client
// inputs (auth payloads, kiosk PIN entry, product writes) reject unknown keys.
//
// Relationships are resolved in a separate pass (AttachCategories,
// AttachProducts, AttachStaff, LinkPaymentMethods) that matches by id only and
// leaves the relation nil on a miss.
package entity
