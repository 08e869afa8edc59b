package value

import "fmt"

func ExampleDecode() {
	data, err := Encode(Tuple{String("sub"), String("CasperLabs")})
	if err != nil {
		panic("failed to encode: " + err.Error())
	}

	v, err := Decode(data, KindTuple)
	if err != nil {
		panic("failed to decode: " + err.Error())
	}

	fmt.Println(v)

	_, err = Decode(data, KindString)
	fmt.Println(err)

	// Output: ("sub", "CasperLabs")
	// expected String but got Tuple: deserialization error
}
