// Package reteval evaluates how well instruction embeddings retrieve their
// paired input embeddings, in-process.
//
// Every instruction i is ranked against all inputs by cosine similarity; the
// ground truth is input i. The report carries Top-K accuracy and MRR.
//
// # Pre-computed embeddings
//
//	client, _ := reteval.New(reteval.WithTopK(1, 5, 10))
//	rep, err := client.Evaluate(ctx, instructionVecs, inputVecs, reteval.ModelInfo{
//	    InstructionModel: "intfloat/multilingual-e5-large-instruct",
//	    InputModel:       "BAAI/bge-m3",
//	    Dataset:          "personas-v2",
//	})
//	top1, _ := rep.Accuracy(1)
//
// # Text pairs with embedders
//
//	client, _ := reteval.New(
//	    reteval.WithEmbedders(instructionEmbedder, inputEmbedder),
//	    reteval.WithValkey("localhost:6379", ""),
//	)
//	rep, _ := client.EvaluatePairs(ctx, []reteval.Pair{
//	    {Instruction: "Write a haiku about rain", Input: "A melancholic poet"},
//	}, info)
//	stored, _ := client.Report(ctx, rep.ID)
//
// # Tagged structs
//
//	type Persona struct {
//	    Name string `reteval:"name,id"`
//	    Ask  string `reteval:"ask,instruction"`
//	    Bio  string `reteval:"bio,input"`
//	}
//	rep, _ := reteval.EvaluateItems(ctx, client, personas, info)
package reteval
