package catalog

import "testing"

func Test_IsBinaryContent_PlainText(t *testing.T) {
	content := []byte("Quarterly report\nRevenue went up\n")
	if IsBinaryContent(content) {
		t.Error("expected text content to not be detected as binary")
	}
}

func Test_IsBinaryContent_PDFHeaderWithNull(t *testing.T) {
	content := []byte{'%', 'P', 'D', 'F', '-', '1', '.', '7', 0x0A, 0x00}
	if !IsBinaryContent(content) {
		t.Error("expected content with NUL byte to be detected as binary")
	}
}

func Test_IsBinaryContent_Empty(t *testing.T) {
	if IsBinaryContent(nil) {
		t.Error("expected empty content to not be detected as binary")
	}
}

func Test_IsBinaryContent_NullAfterSniffWindow(t *testing.T) {
	content := make([]byte, sniffLen+10)
	for i := range content {
		content[i] = 'a'
	}
	content[sniffLen+5] = 0x00
	if IsBinaryContent(content) {
		t.Error("expected NUL past the sniff window to be ignored")
	}
}
