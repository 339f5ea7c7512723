package e2e

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const duplicatedModule = `
def load_users(path):
    rows = read_rows(path)
    names = []
    for row in rows:
        if row.active:
            names.append(row.name)
    return names

def load_hosts(path):
    lines = read_rows(path)
    names = []
    for line in lines:
        if line.active:
            names.append(line.name)
    return names
`

func TestScanE2EBasic(t *testing.T) {
	binaryPath := buildPydupBinary(t)
	defer os.Remove(binaryPath)

	testDir := t.TempDir()
	createTestPythonFile(t, testDir, "loaders.py", duplicatedModule)

	cmd := exec.Command(binaryPath, "scan", "--no-progress", testDir)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Logf("stdout: %s", stdout.String())
		t.Logf("stderr: %s", stderr.String())
		t.Fatalf("Command failed: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "Duplication Scan Results") {
		t.Error("Output should contain the results header")
	}
	if !strings.Contains(output, "load_users") || !strings.Contains(output, "load_hosts") {
		t.Errorf("Output should name both duplicated functions:\n%s", output)
	}
}

func TestScanE2EJSONOutput(t *testing.T) {
	binaryPath := buildPydupBinary(t)
	defer os.Remove(binaryPath)

	testDir := t.TempDir()
	createTestPythonFile(t, testDir, "loaders.py", duplicatedModule)

	cmd := exec.Command(binaryPath, "scan", "--no-progress", "--format", "json", testDir)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Logf("stderr: %s", stderr.String())
		t.Fatalf("Command failed: %v", err)
	}

	var response struct {
		UnitGroups []struct {
			Units []struct {
				Qualname string `json:"qualname"`
			} `json:"units"`
		} `json:"unit_groups"`
		Statistics struct {
			FilesAnalyzed int `json:"files_analyzed"`
			TotalUnits    int `json:"total_units"`
		} `json:"statistics"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		t.Fatalf("Output is not valid JSON: %v\n%s", err, stdout.String())
	}
	if response.Statistics.FilesAnalyzed != 1 {
		t.Errorf("Expected 1 analyzed file, got %d", response.Statistics.FilesAnalyzed)
	}
	if response.Statistics.TotalUnits != 2 {
		t.Errorf("Expected 2 fingerprinted functions, got %d", response.Statistics.TotalUnits)
	}
	if len(response.UnitGroups) != 1 || len(response.UnitGroups[0].Units) != 2 {
		t.Errorf("Expected one group of two functions, got %+v", response.UnitGroups)
	}
}

func TestScanE2EOutputFile(t *testing.T) {
	binaryPath := buildPydupBinary(t)
	defer os.Remove(binaryPath)

	testDir := t.TempDir()
	createTestPythonFile(t, testDir, "loaders.py", duplicatedModule)

	reportPath := filepath.Join(t.TempDir(), "report.json")
	cmd := exec.Command(binaryPath, "scan", "--no-progress", "--format", "json", "-o", reportPath, testDir)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Command failed: %v\n%s", err, out)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("Report file was not written: %v", err)
	}
	if !json.Valid(data) {
		t.Error("Report file should contain valid JSON")
	}
}

func TestScanE2EMissingPath(t *testing.T) {
	binaryPath := buildPydupBinary(t)
	defer os.Remove(binaryPath)

	cmd := exec.Command(binaryPath, "scan", "--no-progress", filepath.Join(t.TempDir(), "nope"))
	if err := cmd.Run(); err == nil {
		t.Error("Expected non-zero exit for a missing path")
	}
}

func TestInitE2E(t *testing.T) {
	binaryPath := buildPydupBinary(t)
	defer os.Remove(binaryPath)

	workDir := t.TempDir()
	cmd := exec.Command(binaryPath, "init")
	cmd.Dir = workDir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Command failed: %v\n%s", err, out)
	}

	data, err := os.ReadFile(filepath.Join(workDir, ".pydup.toml"))
	if err != nil {
		t.Fatalf("Config file was not created: %v", err)
	}
	if !strings.Contains(string(data), "[dup]") {
		t.Error("Generated config should contain a [dup] section")
	}

	// Re-running without --force must refuse to overwrite.
	cmd = exec.Command(binaryPath, "init")
	cmd.Dir = workDir
	if err := cmd.Run(); err == nil {
		t.Error("Expected non-zero exit when the config already exists")
	}
}

func TestVersionE2E(t *testing.T) {
	binaryPath := buildPydupBinary(t)
	defer os.Remove(binaryPath)

	cmd := exec.Command(binaryPath, "version")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Command failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "pydup") {
		t.Errorf("Version output should name the tool, got %q", out)
	}
}
