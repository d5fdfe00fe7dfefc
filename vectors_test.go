package lms

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

// Two-level HSS with the key pairs of RFC 8554 test case 2: the top tree
// is LMS_SHA256_M32_H10/LMOTS_SHA256_N32_W4 and the bottom tree is
// LMS_SHA256_M32_H5/LMOTS_SHA256_N32_W8.  The public key is the one
// printed in the RFC.  The signature is over kat1Message by leaves 5 and
// 10 and was produced by an independent implementation of RFC 8554.
const kat1Message = "The enumeration in the Constitution, of certain rights, " +
	"shall not be construed to deny or disparage others retained by the " +
	"people.\n"

// Single-level HSS with LMS_SHAKE_M24_H5/LMOTS_SHAKE_N24_W4, signed by
// leaf 17 over kat2Message.
const kat2Message = "firmware image 1.0\n"

const kat1PublicKey = `
000000020000000600000003d08fabd4a2091ff0a8cb4ed834e7453432a58885
cd9ba0431235466bff9651c6c92124404d45fa53cf161c28f1ad5a8e
`

const kat1Signature = `
0000000100000005000000033dbc4df2afe310cffdb008bc317e7d44c240e519
1e29e00a38d24ae4c358db9aa5f3a969dcdf5e51f4118553895debd9c481481a
6a541f9004781778f458e0d2028500d9ef14315213b097764e17a586dc16b0f4
073dfacaf6f51aab08b7c83340c77b9093290b19dd82b8758bb852b29bee1c31
d8aad2a29823a8cc121f8b81aeb6f888233633c0401dfec748b9352ced3a878d
4c872eabe32765735fc9f9621d948c545d68074f2bea1d1b4bea34a4f36f4edd
45279f3ef5c1cae035daddb33b8bba993a10a85ab679ef76bfb15445ccacab07
f5bd7d54cb8461f511a4da03266435d5b8d1cec07b2a44b1f46d9a5c7e200265
e791f2d367de51b44bf7ee3591c5ec0dae589f3daff0b8458b919a980ea67010
a435dd85d0fabd104d7745c298881cc647eb963eada9f4add9930ba8c934ad6e
93bbe0c7289828bad5a33d45fba3cdd5753e81feca2cda9f81dcdf8f6959d73e
1e066d7d0c14f1cf434a1da51e0869c9737ed06865f799e68138494269309caa
055db238be9d538908ed77158b4ef02e65489974887e06b00809168b5c918ac2
24591decfa58a2b3cdeab67496b42f33f535829d70393b279c4c90c02f2aa736
f898b07cbf59655334d47d7778285e3c49fb2eeaf768344b4ec887aee2e41acf
db120cf29184ff9076457f9ae1957fc6034b13f70af89b5af6120aac09664012
5cec4ddce39a753605a96c9a47abcf710a881f8d3850f169b488ba893f6dab9f
fccd20776009f3a2e01f1706155ce1f02f021e772d7b476b2e465a77ae2d7902
8caa904a8f5c8db281bf8ba06226b4d6e8882e44337e497dff4bbd3180184b2a
fc9f127f52b0c2b1702a978a2517456cdbabdb0ca604c4eca985af4bc0df91d3
9c70049ec42d013398398013d0f54d4c4d1b1410e26fd45ed5d1bea9ca504f33
ab715d1ba322abb6a1e97bc18e066ba4f619f216bcc0a35dcf821e74ef90a656
774162e8d10bd5173f0fba0f89a6f3a42754f510c8a50e8716dfd182d46169fc
4f611ef269a686b447fc1295d4410cdd4c3f36efaf91177107ece7fc1980c373
e0842998a64a34469e03401b1a98094c3948f93e57da39ea43ddf870773e92b4
842a531329f4d37f7dcf79b42232842f8bc7cd4bf6059c66d6f8708050568f66
dd02ed084959456cd2fb9d8df463a5fc39a3d033ae651e4143bfafdc16ba68e6
31996e2b4433620b4f38ea58e4c73991eebf8c88f0e8d8aa7da1a73aa2846683
94f8ec71f3599325d594b9c94e685350f7055df1db7dce8f3e329fe7990bf448
b8411fc0fa99fc5651f81b57621428068d08e78d5ba08f2fec13969edfd0f0c8
1678e6ca86b8b2ff151cfd8f84043b7b8a225dab28d758a6b6f6365955be778e
0ef9165ce7813dd3ec4ac270cc49b45ab75fb43dac714608331a4d0341c768df
dd5a42062ba0e86681e0b520af1ad7d9e46f16380cea72ad022072599ae406ff
8f38e4c75afa236efbe5839e2d0bdfc9806782fe202bde8457e87dfbe3d6bc6c
cea0356a57386a440198c316b73aac67fe593bbd4a8ec637b86123a886f2bab4
f53c8a39deff794dbef3a7a164238609e4b3423429bc6d15f8d8ded7a574f74a
f96f5f5a5462000f7d6d9881cbdf1eda2ea78e76c953e8acd42f0758ebe45462
8b77531bf42d8cb2570f534033f5399ccd480fff0d89aaa1015e57ae5a3a3e07
7269a4d337691781e8f628c3608d5afd082a59ae8bc923f3b7de80ca6c8a87b6
43a68b1a8a968d39779b68ba2bc18480a20e64caaa01587ae8b90bcd1db649aa
d8d236718c1d7871930d5a8aef20ae1d822b21d4ac37745efafb1b28159e7bc1
95d94a1ec9dd316f1cd6774b8028bb9a49de8c4a916e121c08d0ffa786cb2c51
a2a10279455008dd6d820330dbc1d358e636c78a975b598406affa80eec063f4
333fdc10bf0a2d72eeb02244b91abe9bc2889b5bcadabbd76b9ccbaa723004e1
76f059485cceba0134cf6932cce36e08fdc60c10f65a378f168e4ba0b0f4c87e
6544a27d59ba5e35ea0bdbca6949bd42787e317ec3292a41d646ec84feae7f96
b997f3b5a1ad8054da10f94ad2fdc3348e5af87a19c92fd498d5fbdae74a3dbc
0695daf26e1acf6bc815d66d8469f3f1ad18a55e9599e9754790472944ef6595
48dbfb05b00d0184e224bb11007942c41e0373ae234225c425e14b6d6fa15eb7
7e3a641522a2bda5292de1585873039d3f44d0a9947ad735ecf8a2c9ca006e92
4b0e417bc496d7927c2d868098ce4f48ba66648baece917d857022f03431381c
c46d1ac99bac43f1faaa5f2c6409ab6c44d036e6bbd8f7919c7776b3d1b36a46
1713d90ce4001343344e957aae92a0e13a33e38ee9a09d151421a8a2c74d49ad
1f59b67797e4730ac7668a3e713ba5138477aa78685bd0144fbef75bd2718122
8d6f0b1ec2c50eecc6a4f0eedd9dc5d8c82d72ea63d506292a9e91bb48cd1b55
eec8b81ee536f3c38f88670d6d9a642086f72025e05577fd9c8e8adaa569ff24
eafa21ad7480da43fbcd05484f8ceb9b9de3452c84c0282ef970ac81a9558855
8f26b00f398146a1d068acf61948678a092cae65f7345061809c9f507a7cbf3d
c95d0a5d74aad56dd67f444a335342fce755ee84e8915e63b530cd35b54a0872
c6e130c85d238692c8b60e5275ef8ac0f461e92d3d6bf44a7680b76fb4160e00
28d7b07c669c45b30b4df7b4e4539a2e877f60673153be334bf84f85c32d7350
8cf470df881acce1078c6b58e75a87110703c0449259c92acbb049a43200f2d3
69b4437484c563defe9d95cfcdc16b528ed7c7f9a6b3cc62da3301c955d1440a
ac05c3bee659e2b1b635a0d51ede90eca1c448c51b4c7bbea84044de0537fc3e
73ac6945da851e67c4fe70193a704ab3d605ccb2584f533403e7bf4a00997f70
c641009ca9e19196fc9d143b968971f706264da950171a610a00e390419ae892
715f6438d65e40474f46222fc1e24d86797c2000d4950115de585acd6a7d3064
9309dda72b17ec0ff8fbe935c9d5f60e652b3560eb36f79eb923eb1f5bd1136d
c46ae35eabf77553a1ddd3f7000000068b7634e34bcb17f718665dffb84b8465
de5804e24e1cb466bb949bf065528a47b6b09e79030a9d031991592d1c8b613b
f652ff1fe59e857b907ca2239bc251e734f9c294aa7f8c4fc0c247dd8b5c9690
3ae73abc0035b7fb09ebaec235c416c2686d16621a80816bfdb5bdc56211d72c
a70b81f1117d129529a7570cf79cf52a7028a48538ecdd3b38d3d5d62d262465
95c4fb73a525a5ed2c30524ebb1d8cc82e0c19bc4977c6898ff95fd3d310b0ba
e71696cef93c6a552456bf96e9d075e383bb7543c675842bafbfc7cdb88483b3
276c29d4f0a341c2d406e40d4653b7e4d045851acf6a0a0ea9c710b805cced46
35ee8c107362f0fc8d80c14d0ac49c516703d26d14752f34c1c0d2c4247581c1
8c2cf4de48e9ce949be7c888e9caebe4a415e291fd107d21dc1f084b11582082
49f28f4f7c7e931ba7b3bd0d824a45700000000500000004215f83b7ccb9acbc
d08db97b0d04dc2ba1cd035833e0e90059603f26e07ad2aad152338e7a5e5984
bcd5f7bb4eba40b70000000a00000004a269bd099345660f4841d6672661c03e
92cb5fb7ad13de3ce7b8e11b9118e4ec3f719a95836e159f5d1b6f3252cb5713
c51d9f5543d4b7d332ee6644af6368f2e37e75d6814bc5b833d8e6788c0b2cb9
d6bbe60ed60261f1783845c944b865a0253e1f7b5085aab3426e1ba8c446048d
7d7a6d9c1b09f3e153ade5722bd228e38e0a830433e1249646d66dff37db32ff
bd01c85555e5790dcc73d3b74d735f3f9cf7dac5e9a358a229bed5d1fc3ca5c0
999b078de28a18774a1782c267211beb0c92d02f14872b8bba5617f71bcc01a3
7ee2e2d0fb9b3266efa72165ee9b5a1e6e312c2a94d09eda914d6a2fa7e165d4
1d9bea0e396efa24f7c12f758fb9eaa08c68498e48314ea101a2707969b8db71
15ca588565098d1f5755018363ba8261b923e4e444f6c2d5600d84d95f0d8499
c882c498028d8dae2f34132170480b2b9f8e43d602b9f5873e296a0e32e89415
86e81cfe79909ef3fbad5dba0d3527731843a5869188c98e4e513566af469024
cf22f2c057953620fa8613a1c5a90b56f93c4aceaf3a1c22764868089a6c62eb
a85e4f09fd3075974c0b62676aebeaff03f7f3942b787118e456bfc9b3f1b7b7
0d3c5d2eacf7611b3042cce144d5fb149d7ebb578a86f9c64d7aacb44ed36ee6
3bd72e1702dd5dc53e12375052fc82f70af8b9cc0e547c6f6c1d1fb77d6ea675
4713ff9cfd6957678fa56d499cbd08d1f314380f07c912be21fac952d68e426e
3f8effdf584012fb0ed44558f090063fc069fa7dde13a9c8b6d1e9bfc0c6d477
61c3695862eb9d4255f9856b5c3ef0b47b9df9933d5b6ab6758085a0f57786ae
8384af35b52669eae0038a15643b268fb6c14317d8457155460a052d44beb412
6b2ab4888b6cd7f46d77d7a2000287b5f92b0a43b0ef9fb08843f099117b92eb
20be5b4dbb91cdc97e97d28ffb42e9fcd33a722c855a71babc585678067cc82e
a1f0089f132ca7b1ccf02e0511342c91630f05b715baa27010b8118ca7a66377
f54ac5c5c0028caf2f272b032b267ed9b1b58e516c033e1c5c53fe3cbf336bcd
df0207eb9c557631611a3f91fb58eae3aeade95f802e1729546636cef5a1d80b
b26f472aa1d8d630e7aed09ee7ddfc2b979570cb74eb25990d5bca32b0fbc3bc
4d4de64135f245c4896ea78656f565850ae6fa236b4a2d9755e274048144b137
7e72099a271eefcf2e4ed9841eded6ec8aa33696d09eb9a118e58c88c71fb45f
bfc7943bec0dc21c90f8f24e94193f924ee6624fd4a8a2b4394edcbca9499f16
ae32af8101a544b523688fbc1aacc7336b6fa5f71ec197521e25d260aa674b22
680873ac5975030b434236a9bbbf0fd3286f79b43f37466f718420b9c109ecfb
2ec341716ce6b0308d056011b0419ee1630bef250d4f9bbfa074b66b0d61cfe9
7f5d7f907ee7513230d852b94482f4a5e085ad5f38740d34adbbc597ef0c2033
41aa5abd918fc4db1e988ba3ab06cfe7562da6f816126023c3605b819fc7e807
b435a0bdb42c61ac3fb2570fce1df3227c16247ca07c6c204751a0dd9f2170fb
e31cdb3f84f9025b58eb4b7e5639ab50000000055656ce83d1191385d9c28095
447048b42bf1ecf1610c1616a2c7583d728ecd893213f003d5b0c8c6e2697bdb
4437f93ee198ae981d5ab0a34ae47beddf6e0bbbbcb258c828f34935c26e2889
0d970519224c703f3734d479660c0bc61decb0d7f5d0b3f687ffc87ed577f3d6
b63e22fec28117a07e40d8d4b97da277c0eebbc9e4041d95398a6f7f3e0ee97c
c1591849d4ed236338b147abde9f51ef9fd4e1c1
`

const kat2PublicKey = `
00000001000000140000000f2fd52f7d8ebe802b963285c9baf164149fbd7bbe
77e3b9de2b705c6b3be79a5fbce179c56a5cffbf
`

const kat2Signature = `
00000000000000110000000f22e9a95061f347150b5bd3fc3dbbcbe992aa8f30
c166b577468729920c143bbd2ff79d024a189cde79689381ae7ba7e6dc16ef28
7bdf82468fe8515674bd53642847ad28cb9c25366a0b81cc34f1030bbc3029d6
5fe347be74fccbc94628c7e92aee8d6144bfbf87daf8be39fab8de3431e57574
05a8d13122834107668bbb593ca80ce1445df257fd0538d254c4b084c9ee8868
b4fdf1e72903bd35e3348cf55a2c39bf80fba4371144e2842be652dd2db53be4
3959a76eade6b095c3d59fde49a56c9b7b4763f739ba6f06dc7884eef1f23fcf
35a781b41670e28d78fe415c4ae37b39b8e14a5084e80656afa806961d5baffb
aaacf3454bb4b9b18463f29e7d8a5cea7a262d6ad5b05798aee70d6faaf9b9f3
5870a278bf2dac3c3a0f4cb4bb564446715d139f950758e422fc0df757ceb058
be12573505f3a513905c83e44ee029537334a993329b700639eca094ee51f108
0ebd4a6439d4dd0347555f642ee578a575d3c2a66a076b1b4a24e7c60544e3a1
4dcc597f18beeb54be464b792b093b9be4ed59c7702c2898c0d2edc74af613f2
ab96f5a1a530e668c752b1989555833b2ef9ec76e0d0b9a7aa6bacae69feac5d
5e446817902402ed021d76e708d6c28aeaf412530f182cbacaf5d4f839701593
92cf73936f1eea37259eeb7b0e45f6f9865172f8ebd528b519387b9e8318ffba
1292464b58c3437b3837a6abc57f892329734a86a9851c32425954eb04e582ec
ff7d8b369fd0011e34079e8bf167dd16b56f6e5d0ce50b634010f32592b9511f
ced9bb760bcaf665d218bf6a2629746fdd0923f8b4659b0c2ca0d0ff8c0b60de
3c4fff59fa58bd7b7ca38809ee20cc6fac1e8637b86dc1831c735193d4fb7dc2
2bdd0dac090af848dfc58fc3c068b6c1eee6af8b010ace662faaf84ae9b4f8d3
0276a402c84b55e2a311256f929fc582590c3ac54ac69238420f2c71edc51574
833cbf6b80ef1e4b11aa0ec8624a8b83f5cbf90fa7ca9f8201740460a37eba23
453f002187c5d3253ed75dd154f73e8be95b89af1d15f792bde2c84029264dd6
2fa89708966124e73f116215475386598ec91ce687c912d869523187beecb864
9ba1de852251d6f5c29fedf3ac828cd4fb9c56cff40156d71ce458cfeaa0f8d4
b5c082dbd925123708084d22fae8827ab3b5562710657efa2341f23180208797
19d80963410705d68521b7ed9e2e0cf89334886ba4424311e2fc5aca1101a5e7
470712c1f552378b91a334b08590ff9cd08272552a7103c35ac6aac4082eb639
30e58c40e816a35a47f4d12171ea5bf8b2bb8a75dfb1582206851eb034dfaeda
f781c9a99ecdcbf7ca415a714c8b9faa5282198b7ceef5f3ba331aa7865aa286
87eb41d855977bbf74d642ef05601179e53b41d86c532c40b46c0dc0e3eea854
4e52602b4209c1104dd2d8f85b32c47e7d0d585fbf993478578bd2c6fa171cd7
64f42f89f2af5cbde7660051c9444dca0b49598e154ff65d40b4dc8f9613ae82
005f2aeed80ff2859cbffe10ec4c50327695718696c3e3dcc81531140adaea47
faa013caf8461dcefad1f2798feace1ddbbfc78184ae88b0ec0a5a31628dd769
7fa8e957caf59ca96138a9a9bd95740b1cfa3def7cff52d7325d921cf83d418d
7377d5c78b18252df43e26cfe977787131da98f570136675738e5f96133c186a
9befcee1a59278f9f142d0c150fa0833aadc7a343f2ed3d8b32b395cc46d3268
cc386566e74e9dc6beb834850000001440169296989e6b35e175e1ef0405bac8
ef1174b8114fb99eb8e4056b5be4d2fae52a7a54d83d4c0719ced79f52aa1253
afec4376a6e4b54459958e8d4396d2d77d3b27d779df952745b806aa3db14af5
2a850c29865e30a8cd5ec990cafc20e3eabc888f6f8854bdc58da34b4eb3ed55
8b047d7507150e94
`

func katHex(t testing.TB, s string) []byte {
	ret, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		t.Fatalf("hex.DecodeString: %v", err)
	}
	return ret
}

func TestKnownAnswerSha256(t *testing.T) {
	pk := katHex(t, kat1PublicKey)
	sig := katHex(t, kat1Signature)
	msg := []byte(kat1Message)

	if hex.EncodeToString(pk[24:]) != "32a58885cd9ba0431235466bff9651c6c92124404d45fa53cf161c28f1ad5a8e" {
		t.Fatalf("public key does not carry the top-level root")
	}
	if err := Verify(SHA256, pk, sig, msg); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	// The bottom tree on its own
	off := 4 + 2508
	botPk := sig[off : off+56]
	if hex.EncodeToString(botPk[24:]) != "a1cd035833e0e90059603f26e07ad2aad152338e7a5e5984bcd5f7bb4eba40b7" {
		t.Fatalf("signed public key does not carry the bottom-level root")
	}
	if err := VerifyLms(SHA256, botPk, sig[off+56:], msg); err != nil {
		t.Fatalf("VerifyLms: %v", err)
	}

	parsed, err := ParseHssSignature(sig)
	if err != nil {
		t.Fatalf("ParseHssSignature: %v", err)
	}
	if parsed.Levels() != 2 || parsed.Signed[0].Sig.Q != 5 ||
		parsed.Sig.Q != 10 {
		t.Fatalf("ParseHssSignature returned leaves %d and %d",
			parsed.Signed[0].Sig.Q, parsed.Sig.Q)
	}
	if buf, _ := parsed.MarshalBinary(); !bytes.Equal(buf, sig) {
		t.Fatalf("signature does not marshal back")
	}

	if err := Verify(SHA256, pk, sig, msg[1:]); !errors.Is(err,
		ErrAuthenticationFailed) {
		t.Fatalf("Verify of truncated message: %v", err)
	}
	if err := Verify(SHAKE256, pk, sig, msg); !errors.Is(err,
		ErrTypeMismatch) {
		t.Fatalf("Verify in SHAKE256 mode: %v", err)
	}
}

func TestKnownAnswerSha256ByteFlips(t *testing.T) {
	pk := katHex(t, kat1PublicKey)
	sig := katHex(t, kat1Signature)
	msg := []byte(kat1Message)

	for i := 0; i < len(sig); i += 37 {
		sig[i] ^= 0x01
		if err := Verify(SHA256, pk, sig, msg); err == nil {
			t.Fatalf("flip of signature byte %d accepted", i)
		}
		sig[i] ^= 0x01
	}
	for i := 0; i < len(pk); i++ {
		pk[i] ^= 0x80
		if err := Verify(SHA256, pk, sig, msg); err == nil {
			t.Fatalf("flip of public key byte %d accepted", i)
		}
		pk[i] ^= 0x80
	}
	msg[len(msg)-1] ^= 0x01
	if err := Verify(SHA256, pk, sig, msg); !errors.Is(err,
		ErrAuthenticationFailed) {
		t.Fatalf("flip of message byte: %v", err)
	}
}

func TestKnownAnswerShake(t *testing.T) {
	pk := katHex(t, kat2PublicKey)
	sig := katHex(t, kat2Signature)
	msg := []byte(kat2Message)

	mode, err := HashModeOf(PubAlgoHss, pk)
	if err != nil || mode != SHAKE256 {
		t.Fatalf("HashModeOf = %v, %v", mode, err)
	}
	if err := Verify(SHAKE256, pk, sig, msg); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	sig[len(sig)-1] ^= 0x01
	if err := Verify(SHAKE256, pk, sig, msg); !errors.Is(err,
		ErrAuthenticationFailed) {
		t.Fatalf("Verify with flipped path byte: %v", err)
	}
}
