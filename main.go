package main

import (
	"context"
	goflag "flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/illarion/credseal/cmd"
	"github.com/illarion/credseal/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	klog.InitFlags(nil)
	defer klog.Flush()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if err := goflag.Set("v", strconv.Itoa(cfg.LogLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "encrypt":
		runEncrypt(cfg, args)
	case "decrypt":
		runDecrypt(cfg, args)
	case "hash":
		runHash(cfg, args)
	case "verify":
		runVerify(ctx, cfg, args)
	case "random":
		runRandom(args)
	case "init":
		runInit(cfg, args)
	case "seal":
		runSeal(ctx, cfg, args)
	case "open":
		runOpen(ctx, cfg, args)
	case "rm":
		runRm(ctx, cfg, args)
	case "ls":
		runLs(ctx, cfg, args)
	case "status":
		runStatus(ctx, cfg, args)
	case "diff":
		runDiff(ctx, cfg, args)
	case "export":
		runExport(cfg, args)
	case "import":
		runImport(ctx, cfg, args)
	case "batch":
		runBatch(ctx, cfg, args)
	case "compact":
		runCompact(cfg, args)
	case "keyring":
		runKeyring(ctx, cfg, args)
	case "completion":
		runCompletion(args)
	case "help", "-h", "--help":
		if len(args) == 0 {
			printUsage()
			return
		}
		printCommandHelp(args[0])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// newFlagSet creates a subcommand flag set that also accepts klog's -v
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ExitOnError)
	fs.AddGoFlag(goflag.CommandLine.Lookup("v"))
	return fs
}

func parse(fs *pflag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func requireArgs(fs *pflag.FlagSet, n int, usage string) {
	if fs.NArg() != n {
		fmt.Fprintf(os.Stderr, "Usage: %s\n", usage)
		os.Exit(1)
	}
}

func suiteFlags(fs *pflag.FlagSet) (kdf, aead *string) {
	kdf = fs.String("kdf", "", "Key derivation: sha256, pbkdf2-sha256, argon2id, scrypt (default sha256)")
	aead = fs.String("aead", "", "Cipher: aes-256-gcm, chacha20-poly1305 (default aes-256-gcm)")
	return kdf, aead
}

func runEncrypt(cfg *config.Config, args []string) {
	fs := newFlagSet("encrypt")
	username := fs.StringP("username", "u", "", "Username (prompted when empty)")
	output := fs.StringP("output", "o", "", "Write the envelope to a file instead of stdout")
	format := fs.String("format", "", "Envelope format: json or yaml")
	kdf, aead := suiteFlags(fs)
	parse(fs, args)
	requireArgs(fs, 0, "credseal encrypt [-u user] [-o file] [--format json|yaml]")

	cmd.Encrypt(cfg, cmd.ParseSuite(*kdf, *aead), *username, *output, cmd.ParseFormat(*format, *output))
}

func runDecrypt(cfg *config.Config, args []string) {
	fs := newFlagSet("decrypt")
	field := fs.String("field", "", "Print only username or password")
	format := fs.String("format", "", "Envelope format: json or yaml")
	kdf, aead := suiteFlags(fs)
	parse(fs, args)
	requireArgs(fs, 1, "credseal decrypt [--field username|password] <file|->")

	file := fs.Arg(0)
	cmd.Decrypt(cfg, cmd.ParseSuite(*kdf, *aead), file, *field, cmd.ParseFormat(*format, file))
}

func runHash(cfg *config.Config, args []string) {
	fs := newFlagSet("hash")
	parse(fs, args)
	requireArgs(fs, 0, "credseal hash")

	cmd.Hash(cfg)
}

func runVerify(ctx context.Context, cfg *config.Config, args []string) {
	fs := newFlagSet("verify")
	hash := fs.String("hash", "", "Verify against this hash instead of a stored entry")
	parse(fs, args)

	if *hash == "" {
		requireArgs(fs, 1, "credseal verify <name> | credseal verify --hash <hash>")
		cmd.Verify(ctx, cfg, fs.Arg(0), "")
		return
	}
	requireArgs(fs, 0, "credseal verify --hash <hash>")
	cmd.Verify(ctx, cfg, "", *hash)
}

func runRandom(args []string) {
	fs := newFlagSet("random")
	length := fs.IntP("length", "n", 32, "String length")
	count := fs.IntP("count", "c", 1, "Number of strings")
	parse(fs, args)
	requireArgs(fs, 0, "credseal random [-n length] [-c count]")

	cmd.Random(*length, *count)
}

func runInit(cfg *config.Config, args []string) {
	fs := newFlagSet("init")
	kdf, aead := suiteFlags(fs)
	parse(fs, args)
	requireArgs(fs, 0, "credseal init [--kdf name] [--aead name]")

	cmd.Init(cfg, cmd.ParseSuite(*kdf, *aead))
}

func runSeal(ctx context.Context, cfg *config.Config, args []string) {
	fs := newFlagSet("seal")
	username := fs.StringP("username", "u", "", "Username (prompted when empty)")
	force := fs.BoolP("force", "f", false, "Overwrite an existing entry")
	save := fs.Bool("save", false, "Also save the password to the OS keyring")
	parse(fs, args)
	requireArgs(fs, 1, "credseal seal [-u user] [-f] [--save] <name>")

	cmd.Seal(ctx, cfg, fs.Arg(0), *username, *force, *save)
}

func runOpen(ctx context.Context, cfg *config.Config, args []string) {
	fs := newFlagSet("open")
	field := fs.String("field", "", "Print only username or password")
	parse(fs, args)
	requireArgs(fs, 1, "credseal open [--field username|password] <name>")

	cmd.Open(ctx, cfg, fs.Arg(0), *field)
}

func runRm(ctx context.Context, cfg *config.Config, args []string) {
	fs := newFlagSet("rm")
	parse(fs, args)

	cmd.Remove(ctx, cfg, fs.Args())
}

func runLs(ctx context.Context, cfg *config.Config, args []string) {
	fs := newFlagSet("ls")
	asJSON := fs.Bool("json", false, "Print the entry index as JSON")
	parse(fs, args)
	requireArgs(fs, 0, "credseal ls [--json]")

	cmd.Ls(ctx, cfg, *asJSON)
}

func runStatus(ctx context.Context, cfg *config.Config, args []string) {
	fs := newFlagSet("status")
	parse(fs, args)
	requireArgs(fs, 0, "credseal status")

	cmd.Status(ctx, cfg)
}

func runDiff(ctx context.Context, cfg *config.Config, args []string) {
	fs := newFlagSet("diff")
	fields := fs.Bool("fields", false, "Print only the names of changed fields")
	parse(fs, args)
	requireArgs(fs, 2, "credseal diff [--fields] <name> <name>")

	cmd.Diff(ctx, cfg, fs.Arg(0), fs.Arg(1), *fields)
}

func runExport(cfg *config.Config, args []string) {
	fs := newFlagSet("export")
	output := fs.StringP("output", "o", "", "Output file (stdout when empty)")
	format := fs.String("format", "", "Envelope format: json or yaml")
	parse(fs, args)
	requireArgs(fs, 1, "credseal export [-o file] [--format json|yaml] <name>")

	cmd.Export(cfg, fs.Arg(0), *output, cmd.ParseFormat(*format, *output))
}

func runImport(ctx context.Context, cfg *config.Config, args []string) {
	fs := newFlagSet("import")
	format := fs.String("format", "", "Envelope format: json or yaml")
	force := fs.BoolP("force", "f", false, "Overwrite an existing entry")
	parse(fs, args)
	requireArgs(fs, 2, "credseal import [-f] [--format json|yaml] <file> <name>")

	file := fs.Arg(0)
	cmd.Import(ctx, cfg, file, fs.Arg(1), cmd.ParseFormat(*format, file), *force)
}

func runBatch(ctx context.Context, cfg *config.Config, args []string) {
	fs := newFlagSet("batch")
	parallel := fs.IntP("jobs", "j", 0, "Parallel encryption workers (default: number of CPUs)")
	force := fs.BoolP("force", "f", false, "Overwrite existing entries")
	parse(fs, args)
	requireArgs(fs, 1, "credseal batch [-j N] [-f] <file.csv|->")

	cmd.Batch(ctx, cfg, fs.Arg(0), *parallel, *force)
}

func runCompact(cfg *config.Config, args []string) {
	fs := newFlagSet("compact")
	parse(fs, args)
	requireArgs(fs, 0, "credseal compact")

	cmd.Compact(cfg)
}

func runKeyring(ctx context.Context, cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: credseal keyring <save|delete|status> [name]")
		os.Exit(1)
	}

	fs := newFlagSet("keyring " + args[0])
	parse(fs, args[1:])

	switch args[0] {
	case "save":
		requireArgs(fs, 1, "credseal keyring save <name>")
		cmd.KeyringSave(ctx, cfg, fs.Arg(0))
	case "delete":
		requireArgs(fs, 1, "credseal keyring delete <name>")
		cmd.KeyringDelete(cfg, fs.Arg(0))
	case "status":
		if fs.NArg() > 1 {
			fmt.Fprintln(os.Stderr, "Usage: credseal keyring status [name]")
			os.Exit(1)
		}
		cmd.KeyringStatus(ctx, cfg, fs.Arg(0))
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring command: %s\n", args[0])
		os.Exit(1)
	}
}

func runCompletion(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: credseal completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("credseal - Seal usernames and passwords into portable encrypted envelopes")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  credseal <command> [arguments]")
	fmt.Println()
	fmt.Println("Envelope commands (no store):")
	fmt.Println("  encrypt     Seal a username and password into an envelope")
	fmt.Println("  decrypt     Open an envelope file")
	fmt.Println("  hash        Print the verification hash of a password")
	fmt.Println("  verify      Check a password against a hash or stored entry")
	fmt.Println("  random      Generate random alphanumeric strings")
	fmt.Println()
	fmt.Println("Store commands:")
	fmt.Println("  init        Create a " + config.DefaultStoreFile + " store in current directory")
	fmt.Println("  seal        Encrypt credentials into the store")
	fmt.Println("  open        Decrypt a stored entry")
	fmt.Println("  rm          Remove entries from the store")
	fmt.Println("  ls          List entry names")
	fmt.Println("  status      Show store status")
	fmt.Println("  diff        Compare two stored envelopes")
	fmt.Println("  export      Write a stored envelope to a file")
	fmt.Println("  import      Store an envelope file")
	fmt.Println("  batch       Seal credentials from a CSV file")
	fmt.Println("  compact     Compact store to reclaim disk space")
	fmt.Println("  keyring     Manage entry passwords in OS keyring")
	fmt.Println()
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  " + config.EnvPassword + "   Password used instead of prompting")
	fmt.Println("  " + config.EnvStore + "      Store file (default " + config.DefaultStoreFile + ")")
	fmt.Println("  " + config.EnvLogLevel + "  Log verbosity 0-10 (same as -v)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  credseal encrypt -u alice > alice.json   # Seal without a store")
	fmt.Println("  credseal init --kdf argon2id             # Create a hardened store")
	fmt.Println("  credseal seal -u alice github            # Seal into the store")
	fmt.Println("  credseal open --field password github    # Print the password")
	fmt.Println()
	fmt.Println("Use 'credseal help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "encrypt":
		fmt.Println("credseal encrypt [-u user] [-o file] [--format json|yaml] [--kdf name] [--aead name]")
		fmt.Println()
		fmt.Println("Seals a username and password into an envelope of four base64 fields:")
		fmt.Println("encrypted_username, encrypted_password, salt and iv.")
		fmt.Println("A fresh 32-byte salt and 12-byte iv are drawn for every envelope.")
		fmt.Println("The password is both the credential and the encryption password.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  credseal encrypt -u alice")
		fmt.Println("  credseal encrypt -u alice -o alice.yaml")
	case "decrypt":
		fmt.Println("credseal decrypt [--field username|password] [--format json|yaml] [--kdf name] [--aead name] <file|->")
		fmt.Println()
		fmt.Println("Opens an envelope file with the password. JSON envelopes are validated")
		fmt.Println("against the envelope schema first. The --kdf and --aead values must")
		fmt.Println("match the ones used to encrypt.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  credseal decrypt alice.json")
		fmt.Println("  cat alice.json | credseal decrypt --field password -")
	case "hash":
		fmt.Println("credseal hash")
		fmt.Println()
		fmt.Println("Prints the base64 SHA-256 verification hash of a password.")
		fmt.Println("The hash is unsalted; store it only where the envelope is stored.")
	case "verify":
		fmt.Println("credseal verify <name> | credseal verify --hash <hash>")
		fmt.Println()
		fmt.Println("Checks a password against a stored entry's verification hash, or")
		fmt.Println("against the given hash. Exits with status 1 when it does not match.")
	case "random":
		fmt.Println("credseal random [-n length] [-c count]")
		fmt.Println()
		fmt.Println("Prints random strings over A-Z, a-z and 0-9.")
		fmt.Println()
		fmt.Println("Example:")
		fmt.Println("  credseal random -n 24 -c 5")
	case "init":
		fmt.Println("credseal init [--kdf name] [--aead name]")
		fmt.Println()
		fmt.Println("Creates a store file (" + config.DefaultStoreFile + " or $" + config.EnvStore + ").")
		fmt.Println("Every entry in the store uses the key derivation and cipher chosen here.")
		fmt.Println()
		fmt.Println("Key derivations: sha256 (default, fast), pbkdf2-sha256, argon2id, scrypt")
		fmt.Println("Ciphers: aes-256-gcm (default), chacha20-poly1305")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  credseal init")
		fmt.Println("  credseal init --kdf argon2id --aead chacha20-poly1305")
	case "seal":
		fmt.Println("credseal seal [-u user] [-f|--force] [--save] <name>")
		fmt.Println()
		fmt.Println("Encrypts a username and password into the store under name and keeps")
		fmt.Println("the password's verification hash next to it.")
		fmt.Println("Names are slash-separated paths such as work/github.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -f, --force    Overwrite an existing entry")
		fmt.Println("  --save         Also save the password to the OS keyring")
	case "open":
		fmt.Println("credseal open [--field username|password] <name>")
		fmt.Println()
		fmt.Println("Decrypts a stored entry. The password is taken from $" + config.EnvPassword + ",")
		fmt.Println("the OS keyring, or a prompt, in that order.")
	case "rm":
		fmt.Println("credseal rm <name> [name...]")
		fmt.Println()
		fmt.Println("Removes entries from the store and their keyring passwords.")
		fmt.Println("Supports glob patterns for multiple entries.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  credseal rm github")
		fmt.Println("  credseal rm \"work/*\"")
	case "ls":
		fmt.Println("credseal ls [--json]")
		fmt.Println()
		fmt.Println("Lists entry names. With --json, prints the index with suite,")
		fmt.Println("creation time and size. Does not require a password.")
	case "status":
		fmt.Println("credseal status")
		fmt.Println()
		fmt.Println("Shows the store suite, entry count and size, which entries have a")
		fmt.Println("verification hash or keyring password, and git integration.")
		fmt.Println()
		fmt.Println("Does not require a password.")
	case "diff":
		fmt.Println("credseal diff [--fields] <name> <name>")
		fmt.Println()
		fmt.Println("Compares the stored envelopes of two entries without decrypting them.")
		fmt.Println("Every field differs even for identical credentials since salt and iv")
		fmt.Println("are fresh per envelope.")
	case "export":
		fmt.Println("credseal export [-o file] [--format json|yaml] <name>")
		fmt.Println()
		fmt.Println("Writes a stored envelope to a file under the current directory, or to")
		fmt.Println("stdout. The format follows the file extension unless --format is set.")
	case "import":
		fmt.Println("credseal import [-f|--force] [--format json|yaml] <file> <name>")
		fmt.Println()
		fmt.Println("Validates an envelope file and stores it under name.")
		fmt.Println("Imported entries carry no verification hash.")
	case "batch":
		fmt.Println("credseal batch [-j N] [-f|--force] <file.csv|->")
		fmt.Println()
		fmt.Println("Seals every name,username,password row of a CSV file. A header row is")
		fmt.Println("skipped. Nothing is stored unless every row encrypts.")
		fmt.Println()
		fmt.Println("Example:")
		fmt.Println("  credseal batch -j 4 accounts.csv")
	case "compact":
		fmt.Println("credseal compact")
		fmt.Println()
		fmt.Println("Compacts the store database to reclaim unused disk space.")
		fmt.Println("This is automatically done after 'rm', but can be run manually.")
		fmt.Println()
		fmt.Println("Does not require a password.")
	case "keyring":
		fmt.Println("credseal keyring <save|delete|status> [name]")
		fmt.Println()
		fmt.Println("Manages entry passwords in the OS keyring.")
		fmt.Println()
		fmt.Println("  save <name>      Verify and save the password of an entry")
		fmt.Println("  delete <name>    Remove the saved password")
		fmt.Println("  status [name]    Show which entries have a saved password")
	case "completion":
		fmt.Println("credseal completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(credseal completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(credseal completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  credseal completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
