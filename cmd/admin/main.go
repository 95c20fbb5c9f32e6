package main

import (
	"bhrc/backend/internal/app"
	"bhrc/backend/internal/auth"
	"bhrc/backend/internal/complaint"
	"bhrc/backend/internal/config"
	"bhrc/backend/internal/crud"
	"bhrc/backend/internal/logging"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
)

// operator is the principal the CLI acts as.
var operator = auth.Principal{UserID: "admin-cli", Email: "admin-cli", Role: auth.RoleSuperAdmin}

const usage = `Usage: admin <command> [args]

Commands:
  create-admin <email> <name> <role>           password is read from BHRC_ADMIN_PASSWORD
  complaint-status <complaint_id> <status> [notes...]
  list-complaints [status]`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("BHRC_CONFIG"))
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logging.Init(cfg.LogLevel)

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer a.Close()

	args := os.Args[2:]
	switch os.Args[1] {
	case "create-admin":
		if len(args) != 3 {
			fmt.Println("Usage: admin create-admin <email> <name> <role>")
			os.Exit(1)
		}
		password := os.Getenv("BHRC_ADMIN_PASSWORD")
		if password == "" {
			fmt.Println("BHRC_ADMIN_PASSWORD must hold the new account's password.")
			os.Exit(1)
		}
		user, err := a.Auth.CreateAdmin(ctx, args[0], args[1], args[2], password)
		if err != nil {
			log.Fatalf("Error creating administrator: %v", err)
		}
		fmt.Printf("Administrator %s (%s) created with id %s.\n", user.Email, user.Role, user.ID)
	case "complaint-status":
		if len(args) < 2 {
			fmt.Println("Usage: admin complaint-status <complaint_id> <status> [notes...]")
			os.Exit(1)
		}
		c, err := a.Complaints.UpdateStatus(ctx, operator, args[0], args[1], strings.Join(args[2:], " "))
		if err != nil {
			log.Fatalf("Error updating complaint: %v", err)
		}
		fmt.Printf("Complaint %s is now %s.\n", c.ComplaintID, c.Status)
	case "list-complaints":
		var status string
		if len(args) > 0 {
			status = args[0]
		}
		if err := listComplaints(ctx, a.Complaints, status); err != nil {
			log.Fatalf("Error listing complaints: %v", err)
		}
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func listComplaints(ctx context.Context, svc *complaint.Service, status string) error {
	page, err := svc.List(ctx, operator, crud.Query{
		PageSize: config.MaxPageSize,
		Filters:  map[string]string{"status": status},
	})
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tCATEGORY\tSUBMITTED\tNAME")
	for _, c := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ComplaintID, c.Status, c.Priority, c.Category, c.CreatedAt.Format("2006-01-02"), c.FullName)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d of %d complaints shown.\n", len(page.Items), page.Total)
	return nil
}
