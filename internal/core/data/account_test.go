package data

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gorm.io/gorm"
)

func seedRandomAccounts(t *testing.T, db *gorm.DB) {
	t.Helper()
	for i := 0; i < 10; i++ {
		if err := CreateAccount(db, generateAccount(t)); err != nil {
			t.Fatalf("error seeding test account: %v", err)
		}
	}
}

func generateAccount(t *testing.T) *Account {
	t.Helper()
	return &Account{
		Username:         fmt.Sprintf("PLAYER%d", rand.Int()),
		Email:            fmt.Sprintf("%d@%d.c", rand.Int(), rand.Int()),
		RegistrationDate: time.Date(2006, 8, 22, 12, 0, 0, 0, time.UTC),
	}
}

func assertAccountsMatch(t *testing.T, expected *Account, got *Account) {
	t.Helper()
	if expected == nil && got == nil {
		return
	}

	if got != nil {
		got.DeletedAt = gorm.DeletedAt{}
	}
	opts := cmpopts.EquateApproxTime(time.Second)
	if diff := cmp.Diff(expected, got, opts, cmpopts.IgnoreFields(Account{}, "DeletedAt")); diff != "" {
		t.Errorf("account did not match expected; diff:\n%s", diff)
	}
}

func TestFindAccountByID(t *testing.T) {
	db := setUpDatabase(t)
	seedRandomAccounts(t, db)

	testAccount := generateAccount(t)
	if err := CreateAccount(db, testAccount); err != nil {
		t.Fatalf("error creating test account data: %s", err)
	}

	// gorm assigns IDs back to the struct on creation.
	account, err := FindAccountByID(db, testAccount.ID)
	if err != nil {
		t.Fatalf("FindAccountByID() returned error: %v", err)
	}
	assertAccountsMatch(t, testAccount, account)

	account, err = FindAccountByID(db, testAccount.ID+1000)
	if err != nil || account != nil {
		t.Errorf("FindAccountByID() of a missing ID = %v, %v; want nil, nil", account, err)
	}
}

func TestFindAccountByUsername(t *testing.T) {
	db := setUpDatabase(t)
	seedRandomAccounts(t, db)

	testAccount := generateAccount(t)
	tests := []struct {
		name     string
		seedData func(db *gorm.DB)
		want     *Account
		wantErr  bool
	}{
		{
			name:     "account does not exist",
			seedData: func(db *gorm.DB) {},
			want:     nil,
			wantErr:  false,
		},
		{
			name: "account exists",
			seedData: func(db *gorm.DB) {
				if err := CreateAccount(db, testAccount); err != nil {
					t.Fatalf("error creating test account data: %s", err)
				}
			},
			want:    testAccount,
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.seedData(db)

			account, err := FindAccountByUsername(db, testAccount.Username)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FindAccountByUsername() wantErr = %v, error = %v", tt.wantErr, err)
			}
			assertAccountsMatch(t, tt.want, account)
		})
	}
}

func TestFindUnscopedAccount(t *testing.T) {
	db := setUpDatabase(t)

	testAccount := generateAccount(t)
	if err := CreateAccount(db, testAccount); err != nil {
		t.Fatalf("error creating test account: %v", err)
	}

	// Account exists, but has been soft deleted.
	if err := DeleteAccount(db, testAccount); err != nil {
		t.Fatalf("error deleting test account: %s", err)
	}
	if account, _ := FindAccountByUsername(db, testAccount.Username); account != nil {
		t.Errorf("FindAccountByUsername() returned a soft deleted account")
	}
	account, err := FindUnscopedAccount(db, testAccount.Username)
	if err != nil {
		t.Fatalf("FindUnscopedAccount() returned an unexpected error: %v", err)
	}
	assertAccountsMatch(t, testAccount, account)

	// Account has been hard deleted.
	if err := PermanentlyDeleteAccount(db, account); err != nil {
		t.Fatalf("error deleting test account: %s", err)
	}
	account, err = FindUnscopedAccount(db, testAccount.Username)
	if err != nil {
		t.Fatalf("FindUnscopedAccount() returned an unexpected error: %v", err)
	}
	if account != nil {
		t.Fatalf("FindUnscopedAccount() returned an account unexpectedly: %v", account)
	}
}

func TestRecordLogon(t *testing.T) {
	db := setUpDatabase(t)

	testAccount := generateAccount(t)
	if err := CreateAccount(db, testAccount); err != nil {
		t.Fatalf("error creating test account: %v", err)
	}

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := RecordLogon(db, testAccount, "10.0.0.7", "en-US", at); err != nil {
		t.Fatalf("RecordLogon() returned error: %v", err)
	}

	account, err := FindAccountByUsername(db, testAccount.Username)
	if err != nil {
		t.Fatalf("FindAccountByUsername() returned error: %v", err)
	}
	if account.LastIP != "10.0.0.7" || account.Locale != "en-US" || !account.LastLogin.Equal(at) {
		t.Errorf("logon not recorded: ip=%s locale=%s at=%v", account.LastIP, account.Locale, account.LastLogin)
	}
}

func TestSetAccountBanned(t *testing.T) {
	db := setUpDatabase(t)

	testAccount := generateAccount(t)
	if err := CreateAccount(db, testAccount); err != nil {
		t.Fatalf("error creating test account: %v", err)
	}
	if err := SetAccountBanned(db, testAccount, true); err != nil {
		t.Fatalf("SetAccountBanned() returned error: %v", err)
	}

	account, _ := FindAccountByUsername(db, testAccount.Username)
	if !account.Banned {
		t.Errorf("account was not banned")
	}
}
