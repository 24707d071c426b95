package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewritePrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		in     string
		want   string
	}{
		{
			name:   "bare table in FROM",
			prefix: "xe_",
			in:     "SELECT * FROM member WHERE member_srl = ?",
			want:   "SELECT * FROM `xe_member` AS `member` WHERE member_srl = ?",
		},
		{
			name:   "empty prefix passes through",
			prefix: "",
			in:     "SELECT * FROM member WHERE member_srl = ?",
			want:   "SELECT * FROM member WHERE member_srl = ?",
		},
		{
			name:   "explicit AS alias",
			prefix: "xe_",
			in:     "SELECT * FROM member AS m WHERE m.member_srl = ?",
			want:   "SELECT * FROM `xe_member` AS `m` WHERE m.member_srl = ?",
		},
		{
			name:   "implicit alias",
			prefix: "xe_",
			in:     "SELECT * FROM member m",
			want:   "SELECT * FROM `xe_member` AS `m`",
		},
		{
			name:   "backtick-quoted table",
			prefix: "xe_",
			in:     "SELECT * FROM `member` WHERE member_srl = ?",
			want:   "SELECT * FROM `xe_member` AS `member` WHERE member_srl = ?",
		},
		{
			name:   "comma-separated tables",
			prefix: "xe_",
			in:     "SELECT * FROM member, documents WHERE member.member_srl = documents.member_srl",
			want:   "SELECT * FROM `xe_member` AS `member`, `xe_documents` AS `documents` WHERE member.member_srl = documents.member_srl",
		},
		{
			name:   "join clause",
			prefix: "xe_",
			in:     "SELECT * FROM member LEFT JOIN documents ON member.member_srl = documents.member_srl",
			want:   "SELECT * FROM `xe_member` AS `member` LEFT JOIN `xe_documents` AS `documents` ON member.member_srl = documents.member_srl",
		},
		{
			name:   "derived table untouched",
			prefix: "xe_",
			in:     "SELECT * FROM (SELECT 1) t",
			want:   "SELECT * FROM (SELECT 1) t",
		},
		{
			name:   "keyword inside string literal ignored",
			prefix: "xe_",
			in:     "SELECT 'from member' FROM member",
			want:   "SELECT 'from member' FROM `xe_member` AS `member`",
		},
		{
			name:   "index hint is not an alias",
			prefix: "xe_",
			in:     "SELECT * FROM member USE INDEX (idx_member) WHERE member_srl = ?",
			want:   "SELECT * FROM `xe_member` AS `member` USE INDEX (idx_member) WHERE member_srl = ?",
		},
		{
			name:   "force index after explicit alias",
			prefix: "xe_",
			in:     "SELECT * FROM member m FORCE INDEX (idx_member)",
			want:   "SELECT * FROM `xe_member` AS `m` FORCE INDEX (idx_member)",
		},
		{
			name:   "group by terminates the list",
			prefix: "xe_",
			in:     "SELECT count(*) FROM documents GROUP BY module_srl",
			want:   "SELECT count(*) FROM `xe_documents` AS `documents` GROUP BY module_srl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RewritePrefix(tt.prefix, tt.in))
		})
	}
}

func TestRewritePrefix_DoubleAlias(t *testing.T) {
	// The same table referenced twice with different aliases yields two
	// independently prefixed, independently aliased references.
	in := "SELECT * FROM member a, member b WHERE a.member_srl = b.member_srl"
	want := "SELECT * FROM `xe_member` AS `a`, `xe_member` AS `b` WHERE a.member_srl = b.member_srl"
	assert.Equal(t, want, RewritePrefix("xe_", in))
}

func TestRewritePrefix_CaseInsensitiveKeywords(t *testing.T) {
	in := "select * from member join documents on member.member_srl = documents.member_srl"
	want := "select * from `xe_member` AS `member` join `xe_documents` AS `documents` on member.member_srl = documents.member_srl"
	assert.Equal(t, want, RewritePrefix("xe_", in))
}
