package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rpggio/codepulse/internal/structure"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, KeySize)
}

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := New(testKey(7))
	require.NoError(t, err)
	return c
}

func sampleDocument() structure.Document {
	return structure.Document{
		ProjectName: `C:\Users\dev\demo`,
		Files:       []structure.FileStat{{FileName: "README.md", TotalDuration: 4}},
		Folders: []structure.Folder{
			{
				FolderName: "src",
				Files: []structure.FileStat{
					{FileName: "a.ts", IdleDuration: 5, TotalDuration: 20, KeystrokesCount: 100, FileSwitchCount: 2},
				},
				Folders: []structure.Folder{
					{FolderName: "lib", Files: []structure.FileStat{}},
				},
			},
		},
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	c := newTestCodec(t)

	docs := []structure.Document{
		sampleDocument(),
		structure.Default("/home/dev/empty"),
		{},
	}
	for _, doc := range docs {
		env, err := c.Encrypt(doc)
		require.NoError(t, err)

		got, err := c.Decrypt(env)
		require.NoError(t, err)
		require.Equal(t, doc, got)
	}
}

func TestCodec_SealOpen(t *testing.T) {
	c := newTestCodec(t)
	doc := sampleDocument()

	stored, err := c.Seal(doc)
	require.NoError(t, err)
	require.NotContains(t, stored, "a.ts")
	require.NotContains(t, stored, "project_name")

	got, err := c.Open(stored)
	require.NoError(t, err)
	require.Equal(t, doc, got)
}

func TestCodec_FreshIVPerCall(t *testing.T) {
	c := newTestCodec(t)
	doc := sampleDocument()

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		env, err := c.Encrypt(doc)
		require.NoError(t, err)
		require.Len(t, env.IV, 32)
		require.False(t, seen[env.IV], "iv reused")
		seen[env.IV] = true
	}
}

func TestCodec_DecryptMalformed(t *testing.T) {
	c := newTestCodec(t)
	good, err := c.Encrypt(sampleDocument())
	require.NoError(t, err)

	cases := map[string]Envelope{
		"bad version":     {Version: 9, IV: good.IV, Ciphertext: good.Ciphertext},
		"iv not hex":      {Version: 1, IV: "zz", Ciphertext: good.Ciphertext},
		"short iv":        {Version: 1, IV: "00ff", Ciphertext: good.Ciphertext},
		"cipher not hex":  {Version: 1, IV: good.IV, Ciphertext: "xyz"},
		"empty cipher":    {Version: 1, IV: good.IV, Ciphertext: ""},
		"unaligned":       {Version: 1, IV: good.IV, Ciphertext: good.Ciphertext[:len(good.Ciphertext)-2]},
		"garbage payload": {Version: 1, IV: good.IV, Ciphertext: strings.Repeat("ab", 32)},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decrypt(env)
			require.ErrorIs(t, err, ErrDecode)
		})
	}

	_, err = c.Open("not json")
	require.ErrorIs(t, err, ErrDecode)
}

func TestCodec_WrongKey(t *testing.T) {
	c := newTestCodec(t)
	env, err := c.Encrypt(sampleDocument())
	require.NoError(t, err)

	other, err := New(testKey(9))
	require.NoError(t, err)
	_, err = other.Decrypt(env)
	require.ErrorIs(t, err, ErrDecode)
}

func TestNew_InvalidKey(t *testing.T) {
	_, err := New([]byte("short"))
	require.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestParseKey(t *testing.T) {
	key, err := ParseKey(strings.Repeat("0f", KeySize))
	require.NoError(t, err)
	require.Len(t, key, KeySize)

	_, err = ParseKey("0f0f")
	require.ErrorIs(t, err, ErrInvalidKeyLength)

	_, err = ParseKey("not-hex")
	require.Error(t, err)
}

func TestDeriveKey(t *testing.T) {
	a, err := DeriveKey("correct horse battery staple")
	require.NoError(t, err)
	require.Len(t, a, KeySize)

	b, err := DeriveKey("correct horse battery staple")
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := DeriveKey("another passphrase")
	require.NoError(t, err)
	require.NotEqual(t, a, c)

	_, err = DeriveKey("")
	require.Error(t, err)
}
