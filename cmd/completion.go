package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_credseal() {
    local cur prev words cword
    _init_completion || return

    local commands="encrypt decrypt hash verify random init seal open rm ls status diff export import batch compact keyring help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$prev" in
        --kdf)
            COMPREPLY=($(compgen -W "sha256 pbkdf2-sha256 argon2id scrypt" -- "$cur"))
            return
            ;;
        --aead)
            COMPREPLY=($(compgen -W "aes-256-gcm chacha20-poly1305" -- "$cur"))
            return
            ;;
        --format)
            COMPREPLY=($(compgen -W "json yaml" -- "$cur"))
            return
            ;;
        --field)
            COMPREPLY=($(compgen -W "username password" -- "$cur"))
            return
            ;;
    esac

    case "$cmd" in
        encrypt)
            COMPREPLY=($(compgen -W "-u --username -o --output --format --kdf --aead" -- "$cur"))
            ;;
        decrypt)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--field --format --kdf --aead" -- "$cur"))
            else
                _filedir
            fi
            ;;
        init)
            COMPREPLY=($(compgen -W "--kdf --aead" -- "$cur"))
            ;;
        open|rm|verify|export|diff)
            # Complete with entries from the store
            COMPREPLY=($(compgen -W "$(credseal ls 2>/dev/null)" -- "$cur"))
            ;;
        import|batch)
            _filedir
            ;;
        keyring)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            else
                COMPREPLY=($(compgen -W "$(credseal ls 2>/dev/null)" -- "$cur"))
            fi
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _credseal credseal
`

const zshCompletion = `#compdef credseal

_credseal() {
    local -a commands
    commands=(
        'encrypt:Seal credentials into an envelope without a store'
        'decrypt:Open an envelope file'
        'hash:Print the verification hash of a password'
        'verify:Check a password against a hash or entry'
        'random:Generate random alphanumeric strings'
        'init:Create a credseal store'
        'seal:Encrypt credentials into the store'
        'open:Decrypt an entry'
        'rm:Remove entries from the store'
        'ls:List entries'
        'status:Show store status'
        'diff:Compare two stored envelopes'
        'export:Write an envelope to a file'
        'import:Store an envelope file'
        'batch:Seal credentials from a CSV file'
        'compact:Compact store to reclaim disk space'
        'keyring:Manage entry passwords in OS keyring'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'credseal commands' commands
            ;;
        args)
            case "${words[2]}" in
                init)
                    _arguments \
                        '--kdf[Key derivation]:kdf:(sha256 pbkdf2-sha256 argon2id scrypt)' \
                        '--aead[Cipher]:aead:(aes-256-gcm chacha20-poly1305)'
                    ;;
                decrypt)
                    _arguments \
                        '--field[Print one field]:field:(username password)' \
                        '--format[Envelope format]:format:(json yaml)' \
                        '*:file:_files'
                    ;;
                open|rm|verify|export|diff)
                    _arguments '*:entry:_credseal_entries'
                    ;;
                import|batch)
                    _arguments '*:file:_files'
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'credseal commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_credseal_entries() {
    local -a entries
    entries=(${(f)"$(credseal ls 2>/dev/null)"})
    _describe -t entries 'entries' entries
}

_credseal "$@"
`

const fishCompletion = `# credseal fish completions

set -l commands encrypt decrypt hash verify random init seal open rm ls status diff export import batch compact keyring help completion

complete -c credseal -f

# Commands
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a encrypt -d 'Seal credentials without a store'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a decrypt -d 'Open an envelope file'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a hash -d 'Hash a password'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a verify -d 'Verify a password'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a random -d 'Random strings'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a init -d 'Create a store'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a seal -d 'Seal credentials'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a open -d 'Decrypt an entry'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove entries'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List entries'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show store status'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare envelopes'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a export -d 'Export an envelope'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a import -d 'Import an envelope'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a batch -d 'Seal from CSV'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact store'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage passwords in OS keyring'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# suite flags
complete -c credseal -n "__fish_seen_subcommand_from init encrypt decrypt" -l kdf -x -a "sha256 pbkdf2-sha256 argon2id scrypt"
complete -c credseal -n "__fish_seen_subcommand_from init encrypt decrypt" -l aead -x -a "aes-256-gcm chacha20-poly1305"

# entry names
complete -c credseal -n "__fish_seen_subcommand_from open rm verify export diff" -a "(credseal ls 2>/dev/null)"

# files
complete -c credseal -n "__fish_seen_subcommand_from decrypt import batch" -F

# keyring subcommands
complete -c credseal -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c credseal -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c credseal -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
