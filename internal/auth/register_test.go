package auth

import "testing"

func completeInput() RegisterInput {
	return RegisterInput{
		Firstname: "Ada",
		Lastname:  "Lovelace",
		Age:       30,
		Gender:    "female",
		Address:   "1 Analytical Way",
		Email:     "ada@example.com",
		Password:  "s3cret-pass",
	}
}

func TestRegisterInputValidate(t *testing.T) {
	if err := completeInput().validate(); err != nil {
		t.Fatalf("complete input should validate, got %v", err)
	}

	cases := map[string]func(*RegisterInput){
		"firstname": func(in *RegisterInput) { in.Firstname = "" },
		"lastname":  func(in *RegisterInput) { in.Lastname = "" },
		"age":       func(in *RegisterInput) { in.Age = 0 },
		"gender":    func(in *RegisterInput) { in.Gender = "" },
		"address":   func(in *RegisterInput) { in.Address = "" },
		"email":     func(in *RegisterInput) { in.Email = "" },
		"password":  func(in *RegisterInput) { in.Password = "" },
	}
	for field, clear := range cases {
		in := completeInput()
		clear(&in)
		err := in.validate()
		if err == nil {
			t.Errorf("missing %s should be rejected", field)
			continue
		}
		if err.Error() != "All fields are required" {
			t.Errorf("missing %s: got %q", field, err.Error())
		}
	}
}
