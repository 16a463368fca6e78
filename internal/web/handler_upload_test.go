package web

import (
	"testing"
)

func TestSniffMIME(t *testing.T) {
	riffWave := append([]byte("RIFF\x00\x00\x00\x00WAVE"), make([]byte, 10)...)
	riffWebP := append([]byte("RIFF\x00\x00\x00\x00WEBP"), make([]byte, 10)...)
	id3 := append([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), make([]byte, 64)...)

	tests := []struct {
		name         string
		data         []byte
		allowed      map[string]string
		wantMIME     string
		wantDetected bool
	}{
		{
			name:         "JPEG",
			data:         []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10},
			allowed:      allowedImageTypes,
			wantMIME:     "image/jpeg",
			wantDetected: true,
		},
		{
			name:         "PNG",
			data:         []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00},
			allowed:      allowedImageTypes,
			wantMIME:     "image/png",
			wantDetected: true,
		},
		{
			name:         "GIF",
			data:         []byte("GIF89a"),
			allowed:      allowedImageTypes,
			wantMIME:     "image/gif",
			wantDetected: true,
		},
		{
			name:         "WebP",
			data:         riffWebP,
			allowed:      allowedImageTypes,
			wantMIME:     "image/webp",
			wantDetected: true,
		},
		{
			name:         "WAV is not an image",
			data:         riffWave,
			allowed:      allowedImageTypes,
			wantDetected: false,
		},
		{
			name:         "WAV",
			data:         riffWave,
			allowed:      allowedAudioTypes,
			wantMIME:     "audio/wav",
			wantDetected: true,
		},
		{
			name:         "MP3 with ID3 tag",
			data:         id3,
			allowed:      allowedAudioTypes,
			wantMIME:     "audio/mpeg",
			wantDetected: true,
		},
		{
			name:         "JPEG is not audio",
			data:         []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10},
			allowed:      allowedAudioTypes,
			wantDetected: false,
		},
		{
			name:         "PDF disguised as image",
			data:         []byte("%PDF-1.4 malicious content"),
			allowed:      allowedImageTypes,
			wantDetected: false,
		},
		{
			name:         "empty",
			data:         []byte{},
			allowed:      allowedAudioTypes,
			wantDetected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMIME, gotDetected := sniffMIME(tt.data, tt.allowed)
			if gotDetected != tt.wantDetected {
				t.Errorf("sniffMIME() detected = %v, want %v", gotDetected, tt.wantDetected)
			}
			if gotMIME != tt.wantMIME {
				t.Errorf("sniffMIME() mimeType = %q, want %q", gotMIME, tt.wantMIME)
			}
		})
	}
}
