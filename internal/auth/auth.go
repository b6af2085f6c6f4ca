// Package auth resolves the Gemini API key for local binaries and checks
// it against the API.
package auth

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	apiKeyEnv = "GEMINI_API_KEY"

	credentialDir  = ".cinema-studio"
	credentialFile = "credentials.gpg"
	passphraseName = ".gpg-passphrase"
)

// ErrNoAPIKey is returned when neither the environment nor the encrypted
// credentials file provides a key.
var ErrNoAPIKey = errors.New("API key not found: set " + apiKeyEnv + " or store it in ~/" + credentialDir + "/" + credentialFile)

// GetAPIKey returns GEMINI_API_KEY when set, otherwise the key decrypted
// from ~/.cinema-studio/credentials.gpg.
func GetAPIKey() (string, error) {
	if key := os.Getenv(apiKeyEnv); key != "" {
		log.Debug().Msg("Using API key from environment variable")
		return key, nil
	}

	key, err := getFromGPG()
	if err != nil || key == "" {
		log.Debug().Err(err).Msg("No API key in GPG credentials")
		return "", ErrNoAPIKey
	}
	log.Debug().Msg("Using API key from GPG credentials")
	return key, nil
}

func getFromGPG() (string, error) {
	credPath, err := getCredentialPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(credPath); err != nil {
		return "", fmt.Errorf("credentials file: %w", err)
	}

	out, err := exec.Command("gpg", gpgArgs(credPath, passphraseFile(passphraseDirs()...))...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("decrypt %s: %s", credPath, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("decrypt %s: %w", credPath, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// gpgArgs decrypts credPath, non-interactively when a passphrase file is
// given.
func gpgArgs(credPath, passphrase string) []string {
	args := []string{"--decrypt", "--quiet"}
	if passphrase != "" {
		args = append(args, "--pinentry-mode", "loopback", "--passphrase-file", passphrase)
	}
	return append(args, credPath)
}

func getCredentialPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory: %w", err)
	}
	return filepath.Join(home, credentialDir, credentialFile), nil
}

// passphraseDirs lists where a passphrase file may live: next to the
// binary, then the working directory.
func passphraseDirs() []string {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	return dirs
}

// passphraseFile returns the first owner-only passphrase file in dirs, or
// "" when there is none. Files readable by group or others are skipped.
func passphraseFile(dirs ...string) string {
	for _, dir := range dirs {
		path := filepath.Join(dir, passphraseName)
		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		if perm := fi.Mode().Perm(); perm&0o077 != 0 {
			log.Warn().
				Str("passphrase_file", path).
				Str("permissions", fmt.Sprintf("%04o", perm)).
				Msg("Passphrase file must be mode 0600; skipping")
			continue
		}
		return path
	}
	return ""
}
