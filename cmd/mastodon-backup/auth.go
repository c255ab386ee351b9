package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rozie/mastodon-followers-backup/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Mastodon access tokens",
	Long: `Manage stored Mastodon access tokens securely.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Tokens are scoped to the instance that issued them, so one is stored
per instance host. Never share your tokens or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [instance]",
	Short: "Store an access token for an instance",
	Long: `Store a Mastodon access token securely in the system keychain or
encrypted file.

You will be prompted for:
  - Instance host (if not provided), e.g. mastodon.online
  - Access token (input is hidden)

To create a token:
1. Log into your instance in a browser
2. Open Preferences > Development
3. Create a new application with the read:follows scope
4. Copy the access token it shows`,
	Example: `  # Interactive login
  mastodon-backup auth login

  # Login for a specific instance
  mastodon-backup auth login mastodon.online`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [instance]",
	Short: "Remove a stored access token",
	Long: `Remove the stored access token for a Mastodon instance.

If no instance is provided, you will be shown a list of instances with
stored tokens to choose from.`,
	Example: `  # Interactive logout
  mastodon-backup auth logout

  # Remove the token for one instance
  mastodon-backup auth logout mastodon.online`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List instances with stored tokens",
	Long:  `List all instances with stored tokens, with the token values masked.`,
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize credential manager:", err)
		os.Exit(1)
	}

	var instance string
	if len(args) > 0 {
		instance = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	if instance == "" {
		fmt.Print("Instance host (e.g. mastodon.online): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to read instance:", err)
			os.Exit(1)
		}
		instance = strings.TrimSpace(input)
	}

	// Accept full URLs and bare hosts alike
	instance = strings.TrimPrefix(instance, "https://")
	instance = strings.TrimPrefix(instance, "http://")
	instance = strings.Trim(instance, "/")

	if instance == "" {
		fmt.Fprintln(os.Stderr, "instance is required")
		os.Exit(1)
	}

	// Check if a token already exists for this instance
	if existing, _ := manager.Retrieve(instance); existing != nil {
		fmt.Printf("A token for '%s' already exists. Replace it? (y/N): ", instance)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Print("Access token (input hidden): ")
	token, err := readToken()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to read token:", err)
		os.Exit(1)
	}
	if token == "" {
		fmt.Fprintln(os.Stderr, "access token is required")
		os.Exit(1)
	}

	cred := &auth.Credential{
		Instance:     instance,
		AccessToken:  token,
		LastModified: time.Now(),
	}

	if err := manager.Store(cred); err != nil {
		fmt.Fprintln(os.Stderr, "failed to store token:", err)
		os.Exit(1)
	}

	fmt.Printf("Token stored for %s\n", instance)
	if auth.IsKeyringAvailable() {
		fmt.Println("Storage: system keychain")
	} else {
		fmt.Println("Storage: encrypted file")
	}
	fmt.Println("\nBack up a follow list with:")
	fmt.Printf("  mastodon-backup backup --url https://%s/@username\n", instance)
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize credential manager:", err)
		os.Exit(1)
	}

	if len(args) > 0 {
		instance := args[0]
		if err := manager.Delete(instance); err != nil {
			fmt.Fprintln(os.Stderr, "failed to remove token:", err)
			os.Exit(1)
		}
		fmt.Println("Token removed for", instance)
		return
	}

	creds, err := manager.List()
	if err != nil || len(creds) == 0 {
		fmt.Println("No stored tokens found")
		return
	}

	reader := bufio.NewReader(os.Stdin)

	if len(creds) == 1 {
		instance := creds[0].Instance
		fmt.Printf("Remove the token for '%s'? (y/N): ", instance)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
		if err := manager.Delete(instance); err != nil {
			fmt.Fprintln(os.Stderr, "failed to remove token:", err)
			os.Exit(1)
		}
		fmt.Println("Token removed for", instance)
		return
	}

	fmt.Println("Select the instance to remove:")
	for i, cred := range creds {
		fmt.Printf("  %d. %s\n", i+1, cred.Instance)
	}
	fmt.Printf("  0. Cancel\n\n")

	fmt.Print("Choice: ")
	input, _ := reader.ReadString('\n')

	var choice int
	fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

	if choice == 0 {
		return
	}
	if choice < 1 || choice > len(creds) {
		fmt.Fprintln(os.Stderr, "invalid choice")
		os.Exit(1)
	}

	instance := creds[choice-1].Instance
	if err := manager.Delete(instance); err != nil {
		fmt.Fprintln(os.Stderr, "failed to remove token:", err)
		os.Exit(1)
	}
	fmt.Println("Token removed for", instance)
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize credential manager:", err)
		os.Exit(1)
	}

	creds, err := manager.List()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to list tokens:", err)
		os.Exit(1)
	}

	if len(creds) == 0 {
		fmt.Println("No stored tokens. Use 'mastodon-backup auth login' to add one.")
		return
	}

	fmt.Println("Stored tokens:")
	fmt.Println()
	for i, cred := range creds {
		sanitized := auth.SanitizeCredential(cred)
		fmt.Printf("%d. Instance: %s\n", i+1, sanitized.Instance)
		fmt.Printf("   Token: %s\n", sanitized.AccessToken)
		fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
}

// readToken reads a token from stdin without echoing
func readToken() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		token, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println() // New line after hidden input
		if err == nil {
			return strings.TrimSpace(string(token)), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
