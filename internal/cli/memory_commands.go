package cli

import (
	"fmt"
	"strings"
)

// handleMemoryCommand handles /memory subcommands for the global
// preference store
func (r *repl) handleMemoryCommand(args []string) {
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch strings.ToLower(args[0]) {
	case "list":
		r.listGlobalMemory()

	case "search":
		if len(args) < 2 {
			fmt.Printf("%sUsage: /memory search <query>%s\n", colorYellow, colorReset)
			return
		}
		r.searchGlobalMemory(strings.Join(args[1:], " "))

	case "add":
		if len(args) < 2 {
			fmt.Printf("%sUsage: /memory add <content>%s\n", colorYellow, colorReset)
			return
		}
		r.addGlobalMemory(strings.Join(args[1:], " "))

	case "forget":
		if len(args) < 2 {
			fmt.Printf("%sUsage: /memory forget <entry-id>%s\n", colorYellow, colorReset)
			return
		}
		r.forgetGlobalMemory(args[1])

	default:
		fmt.Printf("%sUnknown memory command: %s%s\n", colorYellow, args[0], colorReset)
		fmt.Println("Available: list, search <query>, add <content>, forget <id>")
	}
}

func (r *repl) listGlobalMemory() {
	mem := r.store.LoadGlobalMemory()
	if len(mem.Entries) == 0 {
		fmt.Println("No remembered preferences yet")
		return
	}

	fmt.Printf("%s%d remembered entries:%s\n", colorCyan, len(mem.Entries), colorReset)
	for _, e := range mem.Entries {
		fmt.Printf("  %s%s%s [%s] %s\n", colorGray, e.ID, colorReset, e.Category, e.Content)
	}
}

func (r *repl) searchGlobalMemory(query string) {
	matches := r.store.SearchGlobalMemory(query)
	if len(matches) == 0 {
		fmt.Printf("No entries matching %q\n", query)
		return
	}

	for _, e := range matches {
		fmt.Printf("  %s%s%s [%s] %s\n", colorGray, e.ID, colorReset, e.Category, e.Content)
	}
}

func (r *repl) addGlobalMemory(content string) {
	entry, err := r.store.AddGlobalMemoryEntry(content, "preference", "user")
	if err != nil {
		fmt.Printf("%sFailed to save memory: %v%s\n", colorRed, err, colorReset)
		return
	}
	fmt.Printf("%sSaved as %s%s\n", colorGreen, entry.ID, colorReset)
}

func (r *repl) forgetGlobalMemory(id string) {
	removed, err := r.store.RemoveGlobalMemoryEntry(id)
	if err != nil {
		fmt.Printf("%sFailed to remove memory: %v%s\n", colorRed, err, colorReset)
		return
	}
	if !removed {
		fmt.Printf("%sNo entry with id %s%s\n", colorYellow, id, colorReset)
		return
	}
	fmt.Printf("%sForgot %s%s\n", colorGreen, id, colorReset)
}
