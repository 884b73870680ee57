package errors

import "testing"

func TestFieldErrors(t *testing.T) {
	var (
		zeroAmount   = Field("Amount", ErrAmount, "must be positive")
		badRecipient = Field("Recipient", ErrInput, "")
		noDomain     = Field("DomainID", ErrEmpty, "required")
		limiter      = Field("Outbound", Append(
			Field("Capacity", ErrAmount, "negative"),
			Append(noDomain, ErrState),
		), "invalid limiter")
		shadowed = Field("DomainID", noDomain, "outer")
	)

	cases := map[string]struct {
		err   error
		field string
		want  []error
	}{
		"single match": {
			err:   zeroAmount,
			field: "Amount",
			want:  []error{zeroAmount},
		},
		"match inside a multi error": {
			err:   Append(zeroAmount, badRecipient),
			field: "Recipient",
			want:  []error{badRecipient},
		},
		"outer field holding a multi error": {
			err:   limiter,
			field: "Outbound",
			want:  []error{limiter},
		},
		"nested field found in the tree": {
			err:   Wrap(Wrap(limiter, "inner"), "outer"),
			field: "DomainID",
			want:  []error{noDomain},
		},
		"outer field shadows an inner one": {
			err:   shadowed,
			field: "DomainID",
			want:  []error{shadowed},
		},
		"wrapped matches across branches": {
			err: Wrap(Append(
				Wrap(zeroAmount, "a"),
				Wrap(badRecipient, "b"),
				Wrap(Field("Amount", ErrOverflow, ""), "c"),
			), "outer"),
			field: "Amount",
			want:  []error{zeroAmount, Field("Amount", ErrOverflow, "")},
		},
		"nil error": {
			field: "Amount",
		},
		"no field information": {
			err:   ErrUnauthorized,
			field: "Amount",
		},
		"different field": {
			err:   badRecipient,
			field: "Amount",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := FieldErrors(tc.err, tc.field)
			if len(got) != len(tc.want) {
				t.Fatalf("want %d errors, got %d: %v", len(tc.want), len(got), got)
			}
			for i := range got {
				if got[i].Error() != tc.want[i].Error() {
					t.Errorf("%d: want %q, got %q", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestFieldNil(t *testing.T) {
	if err := Field("Amount", nil, "ignored"); err != nil {
		t.Fatalf("want nil, got %v", err)
	}
	if err := AppendField(nil, "Amount", nil); err != nil {
		t.Fatalf("want nil, got %v", err)
	}
	err := Field("Rate", ErrRateIncrease, "%d > %d", 5, 3)
	if want := `field "Rate": 5 > 3: rate cannot increase`; err.Error() != want {
		t.Fatalf("want %q, got %q", want, err)
	}
	if !ErrRateIncrease.Is(err) {
		t.Fatal("field error must keep its cause")
	}
}
