package store

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Store wraps the gorm handle used by both the wallet and system actors
// for durable state, and by the upgrade path for Snapshot/Restore.
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates every model in AllModels.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying gorm handle for package-specific repositories.
func (s *Store) DB() *gorm.DB { return s.db }

// WalletSnapshot is the full persisted state of one wallet actor, the
// Go-native stand-in for the pre_upgrade serialization hook described in
// spec §6.
type WalletSnapshot struct {
	Accounts  []AccountRecord
	Pending   []PendingOperationRecord
	Processed []ProcessedOperationRecord
	Users     []UserRecord
	Nonces    []NonceRecord
}

// Snapshot gathers every row belonging to `walletID` into one value ready
// to persist or ship across an upgrade boundary.
func (s *Store) Snapshot(ctx context.Context, walletID string) (WalletSnapshot, error) {
	var snap WalletSnapshot
	db := s.db.WithContext(ctx)
	if err := db.Where("wallet_id = ?", walletID).Find(&snap.Accounts).Error; err != nil {
		return WalletSnapshot{}, fmt.Errorf("store: snapshot accounts: %w", err)
	}
	if err := db.Where("wallet_id = ?", walletID).Find(&snap.Pending).Error; err != nil {
		return WalletSnapshot{}, fmt.Errorf("store: snapshot pending: %w", err)
	}
	if err := db.Where("wallet_id = ?", walletID).Find(&snap.Processed).Error; err != nil {
		return WalletSnapshot{}, fmt.Errorf("store: snapshot processed: %w", err)
	}
	if err := db.Where("wallet_id = ?", walletID).Find(&snap.Users).Error; err != nil {
		return WalletSnapshot{}, fmt.Errorf("store: snapshot users: %w", err)
	}
	if err := db.Where("wallet_id = ?", walletID).Find(&snap.Nonces).Error; err != nil {
		return WalletSnapshot{}, fmt.Errorf("store: snapshot nonces: %w", err)
	}
	return snap, nil
}

// Restore replaces every row belonging to the snapshot's wallet with the
// snapshot's contents, the post_upgrade counterpart to Snapshot. Runs in
// a single transaction so a partial restore never leaves a wallet
// half-populated.
func (s *Store) Restore(ctx context.Context, walletID string, snap WalletSnapshot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("wallet_id = ?", walletID).Delete(&AccountRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("wallet_id = ?", walletID).Delete(&PendingOperationRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("wallet_id = ?", walletID).Delete(&ProcessedOperationRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("wallet_id = ?", walletID).Delete(&UserRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("wallet_id = ?", walletID).Delete(&NonceRecord{}).Error; err != nil {
			return err
		}
		if len(snap.Accounts) > 0 {
			if err := tx.Create(&snap.Accounts).Error; err != nil {
				return err
			}
		}
		if len(snap.Pending) > 0 {
			if err := tx.Create(&snap.Pending).Error; err != nil {
				return err
			}
		}
		if len(snap.Processed) > 0 {
			if err := tx.Create(&snap.Processed).Error; err != nil {
				return err
			}
		}
		if len(snap.Users) > 0 {
			if err := tx.Create(&snap.Users).Error; err != nil {
				return err
			}
		}
		if len(snap.Nonces) > 0 {
			if err := tx.Create(&snap.Nonces).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
