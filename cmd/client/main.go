// Command client is a minimal terminal chat client for a chatterd server.
//
// Usage:
//
//	client -server http://localhost:8080 register <username>
//	client -server http://localhost:8080 login <username>
//	client chat
//	client logout
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/websocket"
	"golang.org/x/term"

	clientapi "github.com/chatterd/chatterd/internal/client/api"
	"github.com/chatterd/chatterd/internal/client/session"
	"github.com/chatterd/chatterd/internal/server/ws"
	"github.com/chatterd/chatterd/pkg/api"
)

func main() {
	var (
		serverURL   = "http://localhost:8080"
		sessionPath = defaultSessionPath()
	)

	args := os.Args[1:]
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		switch {
		case args[0] == "-server" && len(args) > 1:
			serverURL = args[1]
			args = args[2:]
		case args[0] == "-session" && len(args) > 1:
			sessionPath = args[1]
			args = args[2:]
		default:
			usage()
			os.Exit(2)
		}
	}

	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	if err := run(serverURL, sessionPath, args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(serverURL, sessionPath string, args []string) error {
	if dir := filepath.Dir(sessionPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create session dir: %w", err)
		}
	}

	store, err := session.Open(sessionPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	switch args[0] {
	case "register":
		if len(args) != 2 {
			return errors.New("usage: register <username>")
		}
		return register(ctx, serverURL, args[1])
	case "login":
		if len(args) != 2 {
			return errors.New("usage: login <username>")
		}
		return login(ctx, serverURL, args[1], store)
	case "logout":
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	case "chat":
		return chat(ctx, store)
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func register(ctx context.Context, serverURL, username string) error {
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	client := clientapi.New(serverURL)
	user, regErrs, err := client.Register(ctx, username, password)
	if err != nil {
		return err
	}
	if len(regErrs) > 0 {
		for _, e := range regErrs {
			fmt.Println("-", e)
		}
		return errors.New("registration failed")
	}

	fmt.Printf("Registered %s. You can now log in.\n", user.Username)
	return nil
}

func login(ctx context.Context, serverURL, username string, store *session.Store) error {
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	client := clientapi.New(serverURL)
	user, token, err := client.Login(ctx, username, password)
	if err != nil {
		return err
	}

	err = store.Save(&session.Session{
		Token:    token,
		Username: user.Username,
		Server:   serverURL,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s.\n", user.Username)
	return nil
}

func chat(ctx context.Context, store *session.Store) error {
	sess, err := store.Load()
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return errors.New("not logged in; run login first")
		}
		return err
	}

	client := clientapi.New(sess.Server)

	// Print a page of recent history before going live.
	if history, err := client.History(ctx, sess.Token, 1, 20); err == nil {
		for _, msg := range history.Items {
			fmt.Printf("[%s] %s\n", msg.Creator, msg.Content)
		}
	}

	conn, err := client.Connect(ctx, sess.Token)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Connected as %s. Type a message and press enter; Ctrl-D to quit.\n", sess.Username)

	go receive(conn)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		content := strings.TrimSpace(scanner.Text())
		if content == "" {
			continue
		}
		payload, err := json.Marshal(api.CreateMessageRequest{Content: content})
		if err != nil {
			return err
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return fmt.Errorf("send failed: %w", err)
		}
	}

	return conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// receive prints incoming envelopes until the connection closes.
func receive(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			fmt.Println("connection closed:", err)
			os.Exit(0)
		}

		var envelope struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			continue
		}

		switch envelope.Type {
		case ws.TypeMessage:
			var msg struct {
				Content string `json:"content"`
				Creator string `json:"creator"`
			}
			if err := json.Unmarshal(envelope.Payload, &msg); err == nil {
				fmt.Printf("[%s] %s\n", msg.Creator, msg.Content)
			}
		case ws.TypeError:
			var errPayload ws.ErrorPayload
			if err := json.Unmarshal(envelope.Payload, &errPayload); err == nil {
				fmt.Printf("server error (%s): %s\n", errPayload.Code, errPayload.Message)
			}
		case ws.TypeStatus:
			var status ws.StatusPayload
			if err := json.Unmarshal(envelope.Payload, &status); err == nil {
				fmt.Println("*", status.Message)
			}
		}
	}
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		data, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(data), nil
	}

	// Not a terminal (tests, pipes): read one line.
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return "", errors.New("failed to read password")
	}
	return scanner.Text(), nil
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "chatterd-session.db"
	}
	return filepath.Join(home, ".chatterd", "session.db")
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: client [-server URL] [-session PATH] <command>

commands:
  register <username>   create an account
  login <username>      sign in and cache the session
  chat                  join the chat room
  logout                drop the cached session`)
}
