package main

import "testing"

func TestSelectMode(t *testing.T) {
	// WHAT: Flag validation happens before the service (and its database)
	// is constructed; a bad combination is an error, never an exit.
	tests := []struct {
		name    string
		entryID string
		resume  bool
		list    bool
		serve   bool
		mode    string
		wantErr bool
	}{
		{name: "serve", serve: true, mode: "serve"},
		{name: "list", entryID: "7", list: true, mode: "list"},
		{name: "list without entry", list: true, wantErr: true},
		{name: "resume", resume: true, mode: "resume"},
		{name: "job", entryID: "7", mode: "job"},
		{name: "nothing selected", wantErr: true},
		{name: "serve wins over job", entryID: "7", serve: true, mode: "serve"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := selectMode(tt.entryID, tt.resume, tt.list, tt.serve)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("selectMode: %v", err)
			}
			if mode != tt.mode {
				t.Errorf("mode: got %q, want %q", mode, tt.mode)
			}
		})
	}
}
