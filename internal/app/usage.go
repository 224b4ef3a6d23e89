package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/go-github/v45/github"
)

// Version, Owner and Repo are set at compile time, e.g.
// -ldflags "-X github.com/tcpping/tcpping/internal/app.Owner=acme".
// Owner and Repo name the GitHub repository whose releases -u compares against.
var (
	Version = ""
	Owner   = ""
	Repo    = ""
)

// ErrNoReleaseSource is returned by the update check when the binary was built
// without a release repository.
var ErrNoReleaseSource = errors.New("update check is not available: this build has no release repository")

// PrintUsage prints how tcpping should be run
func PrintUsage() {
	executableName := os.Args[0]

	fmt.Printf("\nTCPPING version %s\n\n", Version)
	fmt.Printf("Try running %s like:\n", executableName)
	fmt.Printf("%s <hostname/ip> <port number>. For example:\n", executableName)
	fmt.Printf("%s www.example.com 443\n", executableName)
	fmt.Printf("\n[optional flags]\n")

	newFlagSet(&options{}).VisitAll(func(f *flag.Flag) {
		flagName := f.Name
		if len(f.Name) > 1 {
			flagName = "-" + flagName
		}

		fmt.Printf("  -%s : %s\n", flagName, f.Usage)
	})
}

func compareVersions(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	for i := range min(len(parts1), len(parts2)) {
		n1, _ := strconv.Atoi(parts1[i])
		n2, _ := strconv.Atoi(parts2[i])

		if n1 < n2 {
			return -1
		}
		if n1 > n2 {
			return 1
		}
	}

	// for cases in which version numbers differ in length
	if len(parts1) < len(parts2) {
		return -1
	}

	if len(parts1) > len(parts2) {
		return 1
	}

	return 0
}

// PrintVersion displays the version
func PrintVersion() {
	fmt.Printf("TCPPING version %s\n", Version)
}

// ReleaseFetcher returns the tag of the latest published release.
type ReleaseFetcher func(ctx context.Context) (string, error)

// latestGitHubRelease asks the GitHub API for the latest release tag.
func latestGitHubRelease(ctx context.Context) (string, error) {
	c := github.NewClient(nil)

	// unauthenticated requests from the same IP are limited to 60 per hour
	latestRelease, _, err := c.Repositories.GetLatestRelease(ctx, Owner, Repo)
	if err != nil {
		return "", err
	}

	return latestRelease.GetTagName(), nil
}

// CheckForUpdates checks for newer versions of tcpping and returns update message
func CheckForUpdates(ctx context.Context) (string, error) {
	return checkForUpdates(ctx, latestGitHubRelease)
}

func checkForUpdates(ctx context.Context, fetch ReleaseFetcher) (string, error) {
	if Owner == "" || Repo == "" {
		return "", ErrNoReleaseSource
	}

	latestTagName, err := fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("check for updates: %w", err)
	}

	latestVersion := versionPattern.FindStringSubmatch(latestTagName)
	if len(latestVersion) == 0 {
		return "", fmt.Errorf("version name does not match expected format: %s", latestTagName)
	}

	comparison := compareVersions(Version, latestVersion[1])

	switch comparison {
	case -1:
		return fmt.Sprintf("Found newer version %s\nPlease update TCPPING from the URL below:\nhttps://github.com/%s/%s/releases/tag/%s",
			latestVersion[1], Owner, Repo, latestTagName), nil
	case 1:
		return fmt.Sprintf("Current version %s is newer than the latest release %s",
			Version, latestVersion[1]), nil
	case 0:
		return fmt.Sprintf("TCPPING is on the latest version: %s", Version), nil
	}

	return "", fmt.Errorf("unexpected version comparison result")
}

var versionPattern = regexp.MustCompile(`^v?(\d+\.\d+\.\d+)$`)
