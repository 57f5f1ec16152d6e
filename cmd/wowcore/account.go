package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/wowcore/wowcore/internal/auth"
	"github.com/wowcore/wowcore/internal/core/data"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Account management tools",
}

var accountAddCmd = &cobra.Command{
	Use:   "add [username] [email]",
	Short: "Registers new accounts in the database",
	Run:   AccountAddCommand,
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete [username]",
	Short: "Deletes accounts from the database",
	Run:   AccountDeleteCommand,
}

var accountBanCmd = &cobra.Command{
	Use:   "ban [username]",
	Short: "Bans (or with --lift, unbans) an account",
	Run:   AccountBanCommand,
}

var (
	PermanentFlag bool
	UnbanFlag     bool
)

func initDB() *gorm.DB {
	db, err := data.Open(loadConfig())
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return db
}

func AccountAddCommand(cmd *cobra.Command, args []string) {
	db := initDB()

	usernameInput, args := popArg(args, "Username")
	username := auth.NormalizeUsername(usernameInput)
	if username != usernameInput {
		fmt.Println("Warning: the client sends account names in upper case. Using", username)
	}
	email, _ := popArg(args, "Email")

	account, err := findAccount(db, username)
	if err != nil {
		fmt.Println("error finding account:", err)
		return
	} else if account != nil {
		fmt.Printf("account '%s' already exists; skipping\n", username)
		return
	}

	account = &data.Account{Username: username, Email: email}
	if err := data.CreateAccount(db, account); err != nil {
		fmt.Println("error creating account:", err)
		return
	}
	fmt.Printf("created account for '%s' (ID: %d)\n", account.Username, account.ID)
}

func AccountDeleteCommand(cmd *cobra.Command, args []string) {
	db := initDB()

	usernameInput, _ := popArg(args, "Username")
	account, err := findAccount(db, auth.NormalizeUsername(usernameInput))
	if err != nil {
		fmt.Println("error finding account:", err)
		return
	} else if account == nil {
		fmt.Printf("account '%s' does not exist\n", usernameInput)
		return
	}

	if PermanentFlag {
		err = data.PermanentlyDeleteAccount(db, account)
	} else {
		err = data.DeleteAccount(db, account)
	}
	if err != nil {
		fmt.Println("error deleting account:", err)
		return
	}
	fmt.Println("deleted account")
}

func AccountBanCommand(cmd *cobra.Command, args []string) {
	db := initDB()

	usernameInput, _ := popArg(args, "Username")
	account, err := findAccount(db, auth.NormalizeUsername(usernameInput))
	if err != nil {
		fmt.Println("error finding account:", err)
		return
	} else if account == nil {
		fmt.Printf("account '%s' does not exist\n", usernameInput)
		return
	}

	if err := data.SetAccountBanned(db, account, !UnbanFlag); err != nil {
		fmt.Println("error updating account:", err)
		return
	}
	if UnbanFlag {
		fmt.Printf("lifted ban on '%s'\n", account.Username)
	} else {
		fmt.Printf("banned '%s'\n", account.Username)
	}
}

func popArg(args []string, prompt string) (string, []string) {
	if len(args) == 1 {
		return args[0], nil
	} else if len(args) > 1 {
		return args[0], args[1:]
	}

	fmt.Printf("%s: ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()
	return scanner.Text(), args
}

func findAccount(db *gorm.DB, username string) (*data.Account, error) {
	account, err := data.FindAccountByUsername(db, username)
	if err != nil {
		return nil, fmt.Errorf("error looking up account: %v", err)
	}
	return account, nil
}
