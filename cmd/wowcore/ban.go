package main

import (
	"fmt"
	"net/netip"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wowcore/wowcore/internal/core/data"
)

var banCmd = &cobra.Command{
	Use:   "ban",
	Short: "IP ban management tools",
}

var banAddCmd = &cobra.Command{
	Use:   "add [ip]",
	Short: "Refuses all connections from an address",
	Args:  cobra.ExactArgs(1),
	Run:   BanAddCommand,
}

var banRemoveCmd = &cobra.Command{
	Use:   "remove [ip]",
	Short: "Lifts the ban on an address",
	Args:  cobra.ExactArgs(1),
	Run:   BanRemoveCommand,
}

var banListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists every banned address",
	Run:   BanListCommand,
}

var (
	BanReasonFlag   string
	BanDurationFlag time.Duration
)

func parseIP(arg string) string {
	addr, err := netip.ParseAddr(arg)
	if err != nil {
		fmt.Printf("invalid address '%s': %v\n", arg, err)
		os.Exit(1)
	}
	return addr.Unmap().String()
}

func BanAddCommand(cmd *cobra.Command, args []string) {
	ip := parseIP(args[0])
	db := initDB()

	ban := &data.IPBan{IP: ip, Reason: BanReasonFlag, BannedAt: time.Now()}
	if BanDurationFlag > 0 {
		expires := ban.BannedAt.Add(BanDurationFlag)
		ban.ExpiresAt = &expires
	}
	if err := data.CreateIPBan(db, ban); err != nil {
		fmt.Println("error creating ban:", err)
		return
	}
	fmt.Printf("banned %s until %s\n", ip, expiry(ban))
}

func BanRemoveCommand(cmd *cobra.Command, args []string) {
	ip := parseIP(args[0])
	db := initDB()

	deleted, err := data.DeleteIPBan(db, ip)
	if err != nil {
		fmt.Println("error removing ban:", err)
		return
	} else if !deleted {
		fmt.Printf("%s is not banned\n", ip)
		return
	}
	fmt.Printf("lifted ban on %s\n", ip)
}

func BanListCommand(cmd *cobra.Command, args []string) {
	db := initDB()

	bans, err := data.ListIPBans(db)
	if err != nil {
		fmt.Println("error listing bans:", err)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tBANNED AT\tEXPIRES\tREASON")
	for i := range bans {
		ban := &bans[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ban.IP, ban.BannedAt.Format("2006-01-02 15:04:05"), expiry(ban), ban.Reason)
	}
	_ = w.Flush()
}

func expiry(ban *data.IPBan) string {
	if ban.ExpiresAt == nil {
		return "never"
	}
	return ban.ExpiresAt.Format("2006-01-02 15:04:05")
}
