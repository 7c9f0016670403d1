// Package store defines the gorm persistence models backing the wallet
// and system actors, grounded on
// ai-powered-p256-smart-wallet/backend/internal/models's table-per-struct
// layout, plus a Snapshot/Restore pair standing in for the pre/post-upgrade
// state serialization hooks described in spec §6, the way
// webhook-handler/internal/store/store.go persists its own event log
// alongside a Redis-backed cache.
package store

import "time"

// AccountRecord persists one wallet subaccount's derived identity.
type AccountRecord struct {
	ID            string `gorm:"primaryKey"`
	WalletID      string `gorm:"index"`
	Name          string
	Environment   string
	Hidden        bool
	SubaccountHex string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (AccountRecord) TableName() string { return "wallet_accounts" }

// PendingOperationRecord persists one not-yet-resolved approval request.
type PendingOperationRecord struct {
	ID            string `gorm:"primaryKey"`
	WalletID      string `gorm:"index"`
	Kind          string
	Proposer      string
	AllowedRole   string
	PayloadJSON   []byte
	Deadline      time.Time
	ResponsesJSON []byte
	CreatedAt     time.Time
}

func (PendingOperationRecord) TableName() string { return "wallet_pending_operations" }

// ProcessedOperationRecord persists one archived (succeeded or failed)
// operation outcome.
type ProcessedOperationRecord struct {
	ID          string `gorm:"primaryKey"`
	WalletID    string `gorm:"index"`
	Kind        string
	Status      string
	ResultJSON  []byte
	Error       string
	ProcessedAt time.Time
}

func (ProcessedOperationRecord) TableName() string { return "wallet_processed_operations" }

// UserRecord persists a wallet's registered signer/role entry.
type UserRecord struct {
	Principal string `gorm:"primaryKey"`
	WalletID  string `gorm:"index"`
	Role      string
	Class     string
	Name      string
	Threshold *uint8
	ExpiresAt *time.Time
}

func (UserRecord) TableName() string { return "wallet_users" }

// NonceRecord persists the per-environment subaccount creation counters.
type NonceRecord struct {
	WalletID    string `gorm:"primaryKey"`
	Environment string `gorm:"primaryKey"`
	Value       uint64
}

func (NonceRecord) TableName() string { return "wallet_nonces" }

// ReleaseRecord persists one system release catalogue entry.
type ReleaseRecord struct {
	Version     string `gorm:"primaryKey"`
	Name        string
	Description string
	Hash        string
	Size        int
	Deprecated  bool
	CreatedAt   time.Time
}

func (ReleaseRecord) TableName() string { return "system_releases" }

// WalletRegistrationRecord persists System's per-user wallet registry
// entry.
type WalletRegistrationRecord struct {
	UserPrincipal string `gorm:"primaryKey"`
	WalletID      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (WalletRegistrationRecord) TableName() string { return "system_wallet_registrations" }

// AllModels lists every table gorm.AutoMigrate should manage.
func AllModels() []interface{} {
	return []interface{}{
		&AccountRecord{},
		&PendingOperationRecord{},
		&ProcessedOperationRecord{},
		&UserRecord{},
		&NonceRecord{},
		&ReleaseRecord{},
		&WalletRegistrationRecord{},
	}
}
