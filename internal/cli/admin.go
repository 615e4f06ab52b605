package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Admin verifies the admin key and enters the management submenu. All
// management operations run inside this session; leaving it requires
// re-authentication to return.
func (a *App) Admin(ctx context.Context) error {
	pw, err := GetPassword("Admin key", a.out)
	if err != nil {
		return err
	}
	if err := a.admin.Authenticate(ctx, string(pw)); err != nil {
		fmt.Fprintln(a.out, err.Error())
		return err
	}

	fmt.Fprintln(a.out, "Admin session (type 'help' for commands, 'back' to leave)")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(a.out, "faceguard/admin > ")
		if !scanner.Scan() {
			return nil
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		cmd, args := parts[0], parts[1:]
		switch cmd {
		case "help":
			fmt.Fprintln(a.out, "Available commands: users, stats, logs [n], resetface <user>, deluser <user>, forcemfa on|off, threshold <value>, rotatekey, back")

		case "users":
			a.adminUsers(ctx)

		case "stats":
			a.adminStats(ctx)

		case "logs":
			count := 20
			if len(args) > 0 {
				if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
					count = n
				}
			}
			a.adminLogs(ctx, count)

		case "resetface":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: resetface <user>")
				continue
			}
			if err := a.admin.ResetFace(ctx, args[0]); err != nil {
				fmt.Fprintln(a.out, err.Error())
			} else {
				fmt.Fprintf(a.out, "face factor reset for %q\n", args[0])
			}

		case "deluser":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: deluser <user>")
				continue
			}
			if err := a.admin.DeleteUser(ctx, args[0]); err != nil {
				fmt.Fprintln(a.out, err.Error())
			} else {
				fmt.Fprintf(a.out, "user %q deleted\n", args[0])
			}

		case "forcemfa":
			if len(args) == 0 || (args[0] != "on" && args[0] != "off") {
				fmt.Fprintln(a.out, "Usage: forcemfa on|off")
				continue
			}
			if err := a.admin.SetForceMFA(ctx, args[0] == "on"); err != nil {
				fmt.Fprintln(a.out, err.Error())
			} else {
				fmt.Fprintf(a.out, "force_mfa set to %s\n", args[0])
			}

		case "threshold":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: threshold <value in [0,1]>")
				continue
			}
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				fmt.Fprintln(a.out, "Usage: threshold <value in [0,1]>")
				continue
			}
			if err := a.admin.SetFaceThreshold(ctx, v); err != nil {
				fmt.Fprintln(a.out, err.Error())
			} else {
				fmt.Fprintf(a.out, "face threshold set to %v\n", v)
			}

		case "rotatekey":
			a.adminRotateKey(ctx, string(pw))

		case "back", "exit", "quit":
			return nil

		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}
	}
}

func (a *App) adminUsers(ctx context.Context) {
	users := a.admin.ListUsers(ctx)
	if len(users) == 0 {
		fmt.Fprintln(a.out, "no users")
		return
	}
	for _, u := range users {
		face := "password only"
		if u.FaceEnrolled {
			face = "face enrolled"
		}
		fmt.Fprintf(a.out, "%4d  %-24s %s\n", u.ID, u.Username, face)
	}
}

func (a *App) adminStats(ctx context.Context) {
	st := a.admin.Stats(ctx)
	fmt.Fprintf(a.out, "users: %d  face enrolled: %d  force_mfa: %v  face threshold: %v  schema: v%d\n",
		st.TotalUsers, st.FaceEnrolled, st.ForceMFA, st.FaceThreshold, st.SchemaVersion)
}

func (a *App) adminLogs(ctx context.Context, count int) {
	lines, err := a.admin.RecentLogs(ctx, count)
	if err != nil {
		fmt.Fprintln(a.out, err.Error())
		return
	}
	if len(lines) == 0 {
		fmt.Fprintln(a.out, "audit log is empty")
		return
	}
	for _, line := range lines {
		fmt.Fprintln(a.out, line)
	}
}

func (a *App) adminRotateKey(ctx context.Context, current string) {
	next, err := GetPassword("New admin key", a.out)
	if err != nil {
		fmt.Fprintln(a.out, err.Error())
		return
	}
	if err := a.admin.RotateAdminKey(ctx, current, string(next)); err != nil {
		fmt.Fprintln(a.out, err.Error())
		return
	}
	fmt.Fprintln(a.out, "admin key rotated; use the new key for the next session")
}
