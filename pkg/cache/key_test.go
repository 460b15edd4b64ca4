package cache

import "testing"

func TestKeyString(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "with query",
			key:  Key{Query: "shoes", Page: 3, PerPage: 12},
			want: "catalog:q=shoes:page=3:per=12",
		},
		{
			name: "without query",
			key:  Key{Page: 1, PerPage: 25},
			want: "catalog:page=1:per=25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyDeterminism(t *testing.T) {
	a := Key{Query: "shoes", Page: 2, PerPage: 12}
	b := Key{Query: "shoes", Page: 2, PerPage: 12}
	if a.String() != b.String() {
		t.Error("identical keys must generate identical strings")
	}

	c := Key{Query: "shoes", Page: 3, PerPage: 12}
	if a.String() == c.String() {
		t.Error("different pages must generate different keys")
	}
}
