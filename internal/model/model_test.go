package model

import "testing"

func TestDisplayID(t *testing.T) {
	tests := []struct {
		typ  BugType
		seq  int
		want string
	}{
		{TypeBug, 1, "BUG-01"},
		{TypeBug, 12, "BUG-12"},
		{TypeFeature, 3, "FTR-03"},
		{TypeFeedback, 7, "FBK-07"},
		{TypeBug, 100, "BUG-100"},
		{BugType("unknown"), 2, "BUG-02"},
	}

	for _, tt := range tests {
		if got := DisplayID(tt.typ, tt.seq); got != tt.want {
			t.Errorf("DisplayID(%q, %d) = %q, want %q", tt.typ, tt.seq, got, tt.want)
		}
	}
}

func TestClassifyPath(t *testing.T) {
	tests := []struct {
		path     string
		wantType FileType
		wantOK   bool
	}{
		{"shot1.png", FileScreenshot, true},
		{"Shot 2025-09-01.PNG", FileScreenshot, true},
		{"clip.mp4", FileVideo, true},
		{"clip.MOV", FileVideo, true},
		{"/abs/dir/evidence.webp", FileScreenshot, true},
		{"partial.png.tmp", "", false},
		{"notes.txt", "", false},
		{".hidden", "", false},
		{"noext", "", false},
	}

	for _, tt := range tests {
		typ, ok := ClassifyPath(tt.path, DefaultScreenshotExts, DefaultVideoExts)
		if ok != tt.wantOK || typ != tt.wantType {
			t.Errorf("ClassifyPath(%q) = (%q, %v), want (%q, %v)",
				tt.path, typ, ok, tt.wantType, tt.wantOK)
		}
	}
}

func TestClassifyPath_CustomExts(t *testing.T) {
	typ, ok := ClassifyPath("frame.tiff", []string{".tiff"}, nil)
	if !ok || typ != FileScreenshot {
		t.Errorf("ClassifyPath with custom exts = (%q, %v), want (screenshot, true)", typ, ok)
	}
}

func TestFileTypeSubdir(t *testing.T) {
	if got := FileScreenshot.Subdir(); got != "screenshots" {
		t.Errorf("FileScreenshot.Subdir() = %q, want %q", got, "screenshots")
	}
	if got := FileVideo.Subdir(); got != "video" {
		t.Errorf("FileVideo.Subdir() = %q, want %q", got, "video")
	}
}

func TestValidStatuses(t *testing.T) {
	if !ValidSessionStatus(SessionActive) || ValidSessionStatus("bogus") {
		t.Error("ValidSessionStatus misclassified")
	}
	if !ValidBugStatus(BugCapturing) || ValidBugStatus("bogus") {
		t.Error("ValidBugStatus misclassified")
	}
	if !ValidBugType(TypeFeedback) || ValidBugType("bogus") {
		t.Error("ValidBugType misclassified")
	}
}
