// Command inspect reads a relay database offline and prints the identity
// directory or one conversation. Opens Badger read-only, so it can run
// against a live server's data directory.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"chat-relay/domain"
	"chat-relay/repositories"
)

func main() {
	dbPath := flag.String("db", "data/badger", "Path to badger DB")
	mode := flag.String("mode", "identities", "What to print: identities or conversation")
	emailA := flag.String("a", "", "First conversation email")
	emailB := flag.String("b", "", "Second conversation email")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	switch *mode {
	case "identities":
		err = printIdentities(db)
	case "conversation":
		if *emailA == "" || *emailB == "" {
			log.Fatal("conversation mode needs -a and -b")
		}
		err = printConversation(db, *emailA, *emailB)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func printIdentities(db *badger.DB) error {
	records, err := repositories.NewIdentityRepository(db).All()
	if err != nil {
		return err
	}

	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render("Identity directory"))
	table := newTable([]string{"Name", "Email"})
	for _, record := range records {
		table.Append([]string{record.Name, record.Email})
	}
	table.Render()
	return nil
}

func printConversation(db *badger.DB, emailA, emailB string) error {
	repo := repositories.NewMessageRepository(db, slog.Default(), nil)
	messages, err := repo.GetConversation(emailA, emailB)
	if err != nil {
		return err
	}

	header := fmt.Sprintf("Conversation %s <-> %s (%d messages)", emailA, emailB, len(messages))
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(header))

	table := newTable([]string{"Sent At", "From", "To", "Kind", "Content", "Attachment"})
	for _, m := range messages {
		content := m.Content
		if len(content) > 60 {
			content = content[:57] + "..."
		}
		attachment := ""
		if m.Kind != domain.KindText {
			attachment = m.AttachmentName
		}
		table.Append([]string{
			m.SentAt.Format("2006-01-02 15:04:05"),
			m.SenderEmail,
			m.RecipientEmail,
			string(m.Kind),
			content,
			attachment,
		})
	}
	table.Render()
	return nil
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	return badger.Open(opts)
}
